package constraint

import (
	"testing"
)

func TestParseClauseKinds(t *testing.T) {
	tests := []struct {
		clause string
		kind   Kind
	}{
		{"mut", KindMut},
		{"signer", KindSigner},
		{"init", KindInit},
		{"init_if_needed", KindInitIfNeeded},
		{"bump", KindBump},
		{"bump = vault.bump", KindBump},
		{`seeds = [b"vault"]`, KindSeeds},
		{"has_one = authority", KindHasOne},
		{"constraint = a.owner == b.key()", KindCustom},
		{"associated_token::mint = mint", KindATMint},
		{"associated_token::authority = owner", KindATAuthority},
		{"associated_token::token_program = token_program", KindATTokenProgram},
		{"address = pyth::ID", KindAddress},
		{"payer = payer", KindPayer},
		{"space = 8 + 128", KindSpace},
		{"seeds::program = other_program.key()", KindSeedsProgram},
		{"realloc = 8 + new_len", KindOpaque},
		{"close = receiver", KindOpaque},
		{"token::mint = mint", KindOpaque},
	}

	for _, tt := range tests {
		set := Parse([]string{tt.clause})
		if len(set) != 1 {
			t.Fatalf("%q: expected 1 constraint, got %d", tt.clause, len(set))
		}
		if set[0].Kind != tt.kind {
			t.Errorf("%q: kind = %s, want %s", tt.clause, set[0].Kind, tt.kind)
		}
	}
}

func TestParseSkipsEmptyClauses(t *testing.T) {
	set := Parse([]string{"", "  ", "mut"})
	if len(set) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(set))
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		expr  string
		root  string
		field string
	}{
		{"authority", "authority", ""},
		{"authority.key()", "authority", ""},
		{"order.maker", "order", "maker"},
		{"order.maker.as_ref()", "order", "maker"},
		{"&config.admin", "config", "admin"},
		{"nonce.to_le_bytes().as_ref()", "nonce", ""},
		{"state.data.unwrap()", "state", "data"},
		{"ctx.accounts", "ctx", "accounts"},
		{"42", "", ""},
		{"", "", ""},
		{"some_fn(x)", "", ""},
	}

	for _, tt := range tests {
		p := ParsePath(tt.expr)
		if p.Root != tt.root || p.Field != tt.field {
			t.Errorf("ParsePath(%q) = root %q field %q, want root %q field %q",
				tt.expr, p.Root, p.Field, tt.root, tt.field)
		}
	}
}

func TestParseSeedComponent(t *testing.T) {
	tests := []struct {
		raw      string
		constant bool
		literal  string
		root     string
		field    string
	}{
		{`b"config"`, true, "config", "", ""},
		{`"market"`, true, "market", "", ""},
		{`b"vault".as_ref()`, true, "vault", "", ""},
		{"authority.key().as_ref()", false, "", "authority", ""},
		{"order.maker.as_ref()", false, "", "order", "maker"},
		{"&escrow.key()", false, "", "escrow", ""},
		{"SEED_PREFIX", true, "SEED_PREFIX", "", ""},
		{"crate::ID", true, "crate::ID", "", ""},
	}

	for _, tt := range tests {
		c := ParseSeedComponent(tt.raw)
		if c.Constant != tt.constant {
			t.Errorf("%q: constant = %v, want %v", tt.raw, c.Constant, tt.constant)
			continue
		}
		if tt.constant && c.Literal != tt.literal {
			t.Errorf("%q: literal = %q, want %q", tt.raw, c.Literal, tt.literal)
		}
		if !tt.constant && (c.Ref.Root != tt.root || c.Ref.Field != tt.field) {
			t.Errorf("%q: ref = %q.%q, want %q.%q", tt.raw, c.Ref.Root, c.Ref.Field, tt.root, tt.field)
		}
	}
}

func TestSeedsArray(t *testing.T) {
	set := Parse([]string{`seeds = [b"order", maker.key().as_ref(), nonce.to_le_bytes().as_ref()]`})
	seeds, ok := set.Last(KindSeeds)
	if !ok {
		t.Fatal("expected a seeds constraint")
	}
	if len(seeds.Seeds) != 3 {
		t.Fatalf("expected 3 seed components, got %d", len(seeds.Seeds))
	}
	if !seeds.Seeds[0].Constant || seeds.Seeds[0].Literal != "order" {
		t.Errorf("component 0 = %+v, want constant \"order\"", seeds.Seeds[0])
	}
	if seeds.Seeds[1].Ref.Root != "maker" {
		t.Errorf("component 1 root = %q, want maker", seeds.Seeds[1].Ref.Root)
	}
	if seeds.Seeds[2].Ref.Root != "nonce" {
		t.Errorf("component 2 root = %q, want nonce", seeds.Seeds[2].Ref.Root)
	}
}

func TestCustomEquality(t *testing.T) {
	set := Parse([]string{"constraint = order.mint == mint.key()"})
	c := set[0]
	if c.Kind != KindCustom || c.Check == nil {
		t.Fatalf("expected an interpreted equality, got %+v", c)
	}
	if c.Check.LHS.Root != "order" || c.Check.LHS.Field != "mint" {
		t.Errorf("LHS = %q.%q, want order.mint", c.Check.LHS.Root, c.Check.LHS.Field)
	}
	if c.Check.RHS.Root != "mint" || c.Check.RHS.Field != "" {
		t.Errorf("RHS = %q.%q, want mint identity", c.Check.RHS.Root, c.Check.RHS.Field)
	}
}

func TestCustomErrorCodeStripped(t *testing.T) {
	set := Parse([]string{"constraint = vault.owner == admin.key() @ ErrorCode::Unauthorized"})
	c := set[0]
	if c.Kind != KindCustom {
		t.Fatalf("kind = %s, want %s", c.Kind, KindCustom)
	}
	if c.ErrorCode != "ErrorCode::Unauthorized" {
		t.Errorf("error code = %q", c.ErrorCode)
	}
	if c.Check == nil || c.Check.RHS.Root != "admin" {
		t.Error("equality should still be interpreted after stripping the error code")
	}
}

func TestCustomOpaqueForms(t *testing.T) {
	opaque := []string{
		"constraint = vault.amount >= min_amount",
		"constraint = a.key() != b.key()",
		"constraint = a.x == b.y && c.z == d.w",
		"constraint = is_valid(order)",
		"constraint = vault.amount <= cap",
	}

	for _, clause := range opaque {
		set := Parse([]string{clause})
		if set[0].Kind != KindOpaque {
			t.Errorf("%q: kind = %s, want %s", clause, set[0].Kind, KindOpaque)
		}
	}
}

func TestLastWinsOverride(t *testing.T) {
	set := Parse([]string{`seeds = [b"a"]`, `seeds = [b"b"]`})
	seeds, ok := set.Last(KindSeeds)
	if !ok {
		t.Fatal("expected a seeds constraint")
	}
	if len(seeds.Seeds) != 1 || seeds.Seeds[0].Literal != "b" {
		t.Errorf("Last returned the wrong clause: %+v", seeds.Seeds)
	}
	if got := len(set.All(KindSeeds)); got != 2 {
		t.Errorf("All should keep both clauses, got %d", got)
	}
}

func TestInitialized(t *testing.T) {
	if !Parse([]string{"init"}).Initialized() {
		t.Error("init should mark the set initialized")
	}
	if !Parse([]string{"init_if_needed"}).Initialized() {
		t.Error("init_if_needed should mark the set initialized")
	}
	if Parse([]string{"mut", "signer"}).Initialized() {
		t.Error("mut+signer is not initialized")
	}
}

func TestConstantLabelCapped(t *testing.T) {
	long := "CONST_AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	c := ParseSeedComponent(long)
	if !c.Constant {
		t.Fatal("uppercase identifier should be constant")
	}
	if len(c.Literal) > 50 {
		t.Errorf("label length = %d, want <= 50", len(c.Literal))
	}
}
