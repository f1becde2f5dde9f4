package extract

import (
	"context"
	"testing"

	"anchorscope/internal/rustparse"
)

func parse(t *testing.T, source string) *rustparse.File {
	t.Helper()
	tree, err := rustparse.Parse(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := &rustparse.File{Path: "test.rs", Tree: tree, Source: []byte(source)}
	t.Cleanup(f.Close)
	return f
}

func TestConstructsFindsDeriveAccounts(t *testing.T) {
	f := parse(t, `
use anchor_lang::prelude::*;

#[derive(Accounts)]
pub struct Access<'info> {
    #[account(mut)]
    pub authority: Signer<'info>,
    #[account(
        mut,
        seeds = [b"config", authority.key()],
        bump
    )]
    pub config: Account<'info, Config>,
}

pub struct NotAccounts {
    pub data: u64,
}
`)

	constructs := Constructs(f)
	if len(constructs) != 1 {
		t.Fatalf("expected 1 construct, got %d", len(constructs))
	}

	c := constructs[0]
	if c.Name != "Access" {
		t.Errorf("name = %q, want Access", c.Name)
	}
	if len(c.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(c.Fields))
	}

	authority := c.Fields[0]
	if authority.Name != "authority" || authority.TypeName != "Signer<'info>" {
		t.Errorf("field 0 = %s: %s", authority.Name, authority.TypeName)
	}
	if len(authority.RawClauses) != 1 || authority.RawClauses[0] != "mut" {
		t.Errorf("authority clauses = %v", authority.RawClauses)
	}

	config := c.Fields[1]
	if len(config.RawClauses) != 3 {
		t.Fatalf("config clauses = %v", config.RawClauses)
	}
	if config.RawClauses[1] != `seeds = [b"config", authority.key()]` {
		t.Errorf("clause 1 = %q", config.RawClauses[1])
	}
	if config.RawClauses[2] != "bump" {
		t.Errorf("clause 2 = %q", config.RawClauses[2])
	}
}

func TestConstructsIgnoresOtherDerives(t *testing.T) {
	f := parse(t, `
#[derive(Clone, Debug)]
pub struct Plain {
    pub value: u8,
}
`)
	if got := Constructs(f); len(got) != 0 {
		t.Errorf("expected no constructs, got %d", len(got))
	}
}

func TestInstructionArgs(t *testing.T) {
	f := parse(t, `
#[derive(Accounts)]
#[instruction(nonce: u64, name: String)]
pub struct Open<'info> {
    #[account(seeds = [b"position", nonce.to_le_bytes().as_ref()], bump)]
    pub position: Account<'info, Position>,
}
`)

	constructs := Constructs(f)
	if len(constructs) != 1 {
		t.Fatalf("expected 1 construct, got %d", len(constructs))
	}

	args := constructs[0].Args
	if len(args) != 2 {
		t.Fatalf("expected 2 instruction args, got %v", args)
	}
	if args[0].Name != "nonce" || args[0].TypeName != "u64" {
		t.Errorf("arg 0 = %+v", args[0])
	}
	if args[1].Name != "name" || args[1].TypeName != "String" {
		t.Errorf("arg 1 = %+v", args[1])
	}
}

func TestFieldWithoutAttribute(t *testing.T) {
	f := parse(t, `
#[derive(Accounts)]
pub struct Create<'info> {
    pub system_program: Program<'info, System>,
}
`)

	constructs := Constructs(f)
	if len(constructs) != 1 || len(constructs[0].Fields) != 1 {
		t.Fatalf("unexpected shape: %+v", constructs)
	}
	field := constructs[0].Fields[0]
	if len(field.RawClauses) != 0 {
		t.Errorf("expected no clauses, got %v", field.RawClauses)
	}
	if field.TypeName != "Program<'info, System>" {
		t.Errorf("type = %q", field.TypeName)
	}
}

func TestMultipleAccountAttributesConcatenate(t *testing.T) {
	f := parse(t, `
#[derive(Accounts)]
pub struct Odd<'info> {
    #[account(mut)]
    #[account(signer)]
    pub actor: AccountInfo<'info>,
}
`)

	constructs := Constructs(f)
	field := constructs[0].Fields[0]
	if len(field.RawClauses) != 2 {
		t.Fatalf("clauses = %v", field.RawClauses)
	}
	if field.RawClauses[0] != "mut" || field.RawClauses[1] != "signer" {
		t.Errorf("clause order = %v, want source order", field.RawClauses)
	}
}

func TestDocCommentsBetweenAttributes(t *testing.T) {
	f := parse(t, `
#[derive(Accounts)]
pub struct Guarded<'info> {
    /// CHECK: validated by the seeds constraint
    #[account(seeds = [b"vault"], bump)]
    pub vault: AccountInfo<'info>,
}
`)

	constructs := Constructs(f)
	if len(constructs) != 1 {
		t.Fatalf("expected 1 construct, got %d", len(constructs))
	}
	field := constructs[0].Fields[0]
	if len(field.RawClauses) != 2 {
		t.Errorf("comments must not hide the attribute, clauses = %v", field.RawClauses)
	}
}

func TestInlineCommentInsideAttribute(t *testing.T) {
	f := parse(t, `
#[derive(Accounts)]
pub struct Noisy<'info> {
    #[account(
        mut, // writable
        seeds = [b"thing"],
        bump
    )]
    pub thing: Account<'info, Thing>,
}
`)

	field := Constructs(f)[0].Fields[0]
	if len(field.RawClauses) != 3 {
		t.Fatalf("clauses = %v", field.RawClauses)
	}
	if field.RawClauses[0] != "mut" {
		t.Errorf("clause 0 = %q, want mut with the comment stripped", field.RawClauses[0])
	}
}

func TestNestedCommasStayIntact(t *testing.T) {
	f := parse(t, `
#[derive(Accounts)]
pub struct Funded<'info> {
    #[account(init, payer = payer, space = size_of::<Vault>() + 8, seeds = [b"vault", owner.key().as_ref()], bump)]
    pub vault: Account<'info, Vault>,
    #[account(mut)]
    pub payer: Signer<'info>,
    pub owner: SystemAccount<'info>,
    pub system_program: Program<'info, System>,
}
`)

	field := Constructs(f)[0].Fields[0]
	if len(field.RawClauses) != 5 {
		t.Fatalf("clauses = %v", field.RawClauses)
	}
	if field.RawClauses[3] != `seeds = [b"vault", owner.key().as_ref()]` {
		t.Errorf("seeds clause split incorrectly: %q", field.RawClauses[3])
	}
}

func TestLineNumbers(t *testing.T) {
	f := parse(t, `#[derive(Accounts)]
pub struct Lines<'info> {
    #[account(mut)]
    pub first: Signer<'info>,
}
`)

	c := Constructs(f)[0]
	if c.LineStart != 2 {
		t.Errorf("struct line = %d, want 2", c.LineStart)
	}
	if c.Fields[0].Line != 4 {
		t.Errorf("field line = %d, want 4", c.Fields[0].Line)
	}
}

func TestMultipleConstructsInOneFile(t *testing.T) {
	f := parse(t, `
#[derive(Accounts)]
pub struct First<'info> {
    pub a: Signer<'info>,
}

#[derive(Accounts)]
pub struct Second<'info> {
    pub b: Signer<'info>,
}
`)

	constructs := Constructs(f)
	if len(constructs) != 2 {
		t.Fatalf("expected 2 constructs, got %d", len(constructs))
	}
	if constructs[0].Name != "First" || constructs[1].Name != "Second" {
		t.Errorf("order = %s, %s", constructs[0].Name, constructs[1].Name)
	}
}
