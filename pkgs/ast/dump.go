package ast

// DumpNode is a machine-consumable view of an AST node, parallel to the
// source-reconstruction String() form. It exists for the --format
// json/cbor debug dump modes (see cmd/rocket) and is deliberately a plain
// tagged tree rather than a re-export of the concrete node types, so the
// encoded shape stays stable even as node structs evolve.
type DumpNode struct {
	Kind     string                 `json:"kind" cbor:"kind"`
	Line     int                    `json:"line" cbor:"line"`
	Col      int                    `json:"col" cbor:"col"`
	Fields   map[string]string      `json:"fields,omitempty" cbor:"fields,omitempty"`
	Children map[string]*DumpNode   `json:"children,omitempty" cbor:"children,omitempty"`
	List     []*DumpNode            `json:"list,omitempty" cbor:"list,omitempty"`
	Entries  []DumpEntry            `json:"entries,omitempty" cbor:"entries,omitempty"`
	Params   []string               `json:"params,omitempty" cbor:"params,omitempty"`
}

// DumpEntry is a key/value pair for dumped dict literals.
type DumpEntry struct {
	Key *DumpNode `json:"key" cbor:"key"`
	Val *DumpNode `json:"val" cbor:"val"`
}

// DumpRoot converts a parsed program into its machine-consumable form.
func DumpRoot(root *Root) []*DumpNode {
	out := make([]*DumpNode, 0, len(root.Items))
	for _, item := range root.Items {
		out = append(out, dumpTopLevel(item))
	}
	return out
}

func dumpTopLevel(item TopLevel) *DumpNode {
	if fn, ok := item.(*FnDefinition); ok {
		return &DumpNode{
			Kind:     "FnDefinition",
			Line:     fn.Line,
			Col:      fn.Col,
			Fields:   map[string]string{"name": fn.Name},
			Params:   fn.Params,
			Children: map[string]*DumpNode{"body": dumpStmt(fn.Body)},
		}
	}
	return dumpStmt(item.(Stmt))
}

func dumpStmt(s Stmt) *DumpNode {
	switch n := s.(type) {
	case *Block:
		list := make([]*DumpNode, len(n.Stmts))
		for i, c := range n.Stmts {
			list[i] = dumpStmt(c)
		}
		return &DumpNode{Kind: "Block", Line: n.Line, Col: n.Col, List: list}
	case *VarDecl:
		return &DumpNode{Kind: "VarDecl", Line: n.Line, Col: n.Col,
			Fields:   map[string]string{"name": n.Name},
			Children: map[string]*DumpNode{"expr": dumpStmt(n.Expr)}}
	case *If:
		children := map[string]*DumpNode{"cond": dumpStmt(n.Cond), "then": dumpStmt(n.Then)}
		if n.Else != nil {
			children["else"] = dumpStmt(n.Else)
		}
		return &DumpNode{Kind: "If", Line: n.Line, Col: n.Col, Children: children}
	case *While:
		return &DumpNode{Kind: "While", Line: n.Line, Col: n.Col,
			Children: map[string]*DumpNode{"cond": dumpStmt(n.Cond), "body": dumpStmt(n.Body)}}
	case *ForEach:
		return &DumpNode{Kind: "ForEach", Line: n.Line, Col: n.Col,
			Fields:   map[string]string{"binding": n.Binding},
			Children: map[string]*DumpNode{"iterable": dumpStmt(n.Iterable), "body": dumpStmt(n.Body)}}
	case *Break:
		return &DumpNode{Kind: "Break", Line: n.Line, Col: n.Col}
	case *Continue:
		return &DumpNode{Kind: "Continue", Line: n.Line, Col: n.Col}
	case *Return:
		children := map[string]*DumpNode{}
		if n.Expr != nil {
			children["expr"] = dumpStmt(n.Expr)
		}
		return &DumpNode{Kind: "Return", Line: n.Line, Col: n.Col, Children: children}
	case *Try:
		children := map[string]*DumpNode{"try": dumpStmt(n.TryBody), "catch": dumpStmt(n.CatchBody)}
		fields := map[string]string{}
		if n.ErrBinding != "" {
			fields["errBinding"] = n.ErrBinding
		}
		return &DumpNode{Kind: "Try", Line: n.Line, Col: n.Col, Fields: fields, Children: children}
	case *BoolLit, *IntLit, *FloatLit, *StrLit, *NullLit, *ListLit, *DictLit,
		*Access, *Assignment, *AttrAccess, *AttrAssign, *ItemAccess, *ItemAssign, *Call:
		return dumpExpr(n.(Expr))
	default:
		return &DumpNode{Kind: "Unknown"}
	}
}

func dumpExpr(e Expr) *DumpNode {
	switch n := e.(type) {
	case *BoolLit:
		return &DumpNode{Kind: "BoolLit", Line: n.Line, Col: n.Col, Fields: map[string]string{"val": n.String()}}
	case *IntLit:
		return &DumpNode{Kind: "IntLit", Line: n.Line, Col: n.Col, Fields: map[string]string{"val": n.String()}}
	case *FloatLit:
		return &DumpNode{Kind: "FloatLit", Line: n.Line, Col: n.Col, Fields: map[string]string{"val": n.String()}}
	case *StrLit:
		return &DumpNode{Kind: "StrLit", Line: n.Line, Col: n.Col, Fields: map[string]string{"val": n.Val}}
	case *NullLit:
		return &DumpNode{Kind: "NullLit", Line: n.Line, Col: n.Col}
	case *ListLit:
		list := make([]*DumpNode, len(n.Elems))
		for i, el := range n.Elems {
			list[i] = dumpExpr(el)
		}
		return &DumpNode{Kind: "ListLit", Line: n.Line, Col: n.Col, List: list}
	case *DictLit:
		entries := make([]DumpEntry, len(n.Entries))
		for i, e := range n.Entries {
			entries[i] = DumpEntry{Key: dumpExpr(e.Key), Val: dumpExpr(e.Val)}
		}
		return &DumpNode{Kind: "DictLit", Line: n.Line, Col: n.Col, Entries: entries}
	case *Access:
		return &DumpNode{Kind: "Access", Line: n.Line, Col: n.Col, Fields: map[string]string{"name": n.Name}}
	case *Assignment:
		return &DumpNode{Kind: "Assignment", Line: n.Line, Col: n.Col,
			Fields:   map[string]string{"name": n.Name},
			Children: map[string]*DumpNode{"expr": dumpExpr(n.Expr)}}
	case *AttrAccess:
		return &DumpNode{Kind: "AttrAccess", Line: n.Line, Col: n.Col,
			Fields:   map[string]string{"name": n.Name},
			Children: map[string]*DumpNode{"obj": dumpExpr(n.Obj)}}
	case *AttrAssign:
		return &DumpNode{Kind: "AttrAssign", Line: n.Line, Col: n.Col,
			Fields:   map[string]string{"name": n.Name},
			Children: map[string]*DumpNode{"obj": dumpExpr(n.Obj), "expr": dumpExpr(n.Expr)}}
	case *ItemAccess:
		return &DumpNode{Kind: "ItemAccess", Line: n.Line, Col: n.Col,
			Children: map[string]*DumpNode{"obj": dumpExpr(n.Obj), "key": dumpExpr(n.Key)}}
	case *ItemAssign:
		return &DumpNode{Kind: "ItemAssign", Line: n.Line, Col: n.Col,
			Children: map[string]*DumpNode{"obj": dumpExpr(n.Obj), "key": dumpExpr(n.Key), "expr": dumpExpr(n.Expr)}}
	case *Call:
		list := make([]*DumpNode, len(n.Args))
		for i, a := range n.Args {
			list[i] = dumpExpr(a)
		}
		return &DumpNode{Kind: "Call", Line: n.Line, Col: n.Col,
			Children: map[string]*DumpNode{"callee": dumpExpr(n.Callee)}, List: list}
	default:
		return &DumpNode{Kind: "Unknown"}
	}
}
