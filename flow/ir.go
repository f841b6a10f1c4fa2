package flow

// Statement is a node of the method body representation the checker
// walks. Type names are '/'-separated.
type Statement interface {
	statement()
}

// Throw raises Type and ends the path.
type Throw struct {
	Type string
	Line int
}

// Invoke calls a method declaring Throws.
type Invoke struct {
	Name   string
	Throws []string
	Line   int
}

// Assign definitely assigns local Var.
type Assign struct {
	Var  string
	Line int
}

type Return struct {
	Line int
}

type Try struct {
	Body    []Statement
	Catches []Catch
	Finally []Statement
	Line    int
}

// Catch is one catch clause; several Types make a multi-catch.
type Catch struct {
	Types []string
	Body  []Statement
	Line  int
}

// Block groups statements.
type Block struct {
	Body []Statement
}

func (Throw) statement()  {}
func (Invoke) statement() {}
func (Assign) statement() {}
func (Return) statement() {}
func (Try) statement()    {}
func (Block) statement()  {}

// Method is a method declaration: a name, declared thrown types and a
// body.
type Method struct {
	Name   string
	Throws []string
	Body   []Statement
	Line   int
}
