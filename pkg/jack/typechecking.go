package jack

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------------
// Jack TypeChecker

// The TypeChecker walks a 'jack.Program' resolving every symbol reference (variables,
// subroutine calls) against the scope or class it's declared in.
//
// This deliberately stops short of full type inference/compatibility checking (e.g. it
// never flags `let x = "foo";` for an int-typed 'x'): it only catches undeclared names,
// unknown classes/subroutines and call-site arity mismatches, the same class of errors
// the original toolchain leaves to a failed compile/assemble rather than a dedicated pass.
type TypeChecker struct {
	program Program
	scopes  ScopeTable // Keeps track of the scopes and declared variables inside each one
}

func NewTypeChecker(program Program) TypeChecker {
	return TypeChecker{program: program, scopes: ScopeTable{}}
}

func (tc *TypeChecker) Check() (bool, error) {
	if len(tc.program) == 0 {
		return false, fmt.Errorf("the given 'program' is empty or nil")
	}

	for name, class := range tc.program {
		if _, err := tc.HandleClass(class); err != nil {
			return false, fmt.Errorf("error checking class '%s': %w", name, err)
		}
	}

	return true, nil
}

// Specialized function to resolve a 'jack.Class' and its nested fields/subroutines.
func (tc *TypeChecker) HandleClass(class Class) (bool, error) {
	tc.scopes.PushClassScope(class.Name) // Keep track of the current scope being processed
	defer tc.scopes.PopClassScope()      // Reset the function name after processing

	for _, field := range class.Fields.Values() {
		if _, err := tc.HandleVarStmt(VarStmt{Vars: []Variable{field}}); err != nil {
			return false, fmt.Errorf("error handling field '%s' in class '%s': %w", field.Name, class.Name, err)
		}
	}

	for _, subroutine := range class.Subroutines.Values() {
		if _, err := tc.HandleSubroutine(subroutine); err != nil {
			return false, fmt.Errorf("error handling subroutine '%s' in class '%s': %w", subroutine.Name, class.Name, err)
		}
	}

	return true, nil
}

// Specialized function to resolve a 'jack.Subroutine' body against its own scope.
func (tc *TypeChecker) HandleSubroutine(subroutine Subroutine) (bool, error) {
	tc.scopes.PushSubRoutineScope(subroutine.Name) // Keep track of the current subroutine function being processed
	defer tc.scopes.PopSubroutineScope()           // Reset the function name after processing

	if subroutine.Type == Method {
		// Mirrors the lowerer: methods receive the instance pointer as the implicit first argument.
		tc.scopes.RegisterVariable(Variable{Name: "__obj", Type: Parameter, DataType: Object, ClassName: ""})
	}

	for _, arg := range subroutine.Arguments {
		tc.scopes.RegisterVariable(arg)
	}

	for _, stmt := range subroutine.Statements {
		if _, err := tc.HandleStatement(stmt); err != nil {
			return false, fmt.Errorf("error handling nested statement %T: %w", stmt, err)
		}
	}

	return true, nil
}

// Generalized function to resolve multiple statement types.
func (tc *TypeChecker) HandleStatement(stmt Statement) (bool, error) {
	switch tStmt := stmt.(type) {
	case DoStmt:
		return tc.HandleDoStmt(tStmt)
	case VarStmt:
		return tc.HandleVarStmt(tStmt)
	case LetStmt:
		return tc.HandleLetStmt(tStmt)
	case IfStmt:
		return tc.HandleIfStmt(tStmt)
	case WhileStmt:
		return tc.HandleWhileStmt(tStmt)
	case ReturnStmt:
		return tc.HandleReturnStmt(tStmt)
	default:
		return false, fmt.Errorf("unrecognized statement: %T", stmt)
	}
}

func (tc *TypeChecker) HandleDoStmt(statement DoStmt) (bool, error) {
	if _, err := tc.HandleFuncCallExpr(statement.FuncCall); err != nil {
		return false, fmt.Errorf("error handling nested function call expression: %w", err)
	}
	return true, nil
}

func (tc *TypeChecker) HandleVarStmt(statement VarStmt) (bool, error) {
	for _, variable := range statement.Vars {
		// Shadowing is allowed, same as the lowerer: a redeclaration just overrides lookup order.
		tc.scopes.RegisterVariable(variable)
	}
	return true, nil
}

func (tc *TypeChecker) HandleLetStmt(statement LetStmt) (bool, error) {
	if _, err := tc.HandleExpression(statement.Rhs); err != nil {
		return false, fmt.Errorf("error handling RHS expression: %w", err)
	}

	if expr, isVarExpr := statement.Lhs.(VarExpr); isVarExpr {
		if _, _, err := tc.scopes.ResolveVariable(expr.Var); err != nil {
			return false, fmt.Errorf("error resolving assignment target '%s': %w", expr.Var, err)
		}
		return true, nil
	}

	if expr, isArrayExpr := statement.Lhs.(ArrayExpr); isArrayExpr {
		if _, _, err := tc.scopes.ResolveVariable(expr.Var); err != nil {
			return false, fmt.Errorf("error resolving array assignment target '%s': %w", expr.Var, err)
		}
		if _, err := tc.HandleExpression(expr.Index); err != nil {
			return false, fmt.Errorf("error handling array index expression: %w", err)
		}
		return true, nil
	}

	return false, fmt.Errorf("LHS expression must be either a 'VarExpr' or an 'ArrayExpr', got: %T", statement.Lhs)
}

func (tc *TypeChecker) HandleIfStmt(statement IfStmt) (bool, error) {
	if _, err := tc.HandleExpression(statement.Condition); err != nil {
		return false, fmt.Errorf("error handling if condition expression: %w", err)
	}
	for _, stmt := range statement.ThenBlock {
		if _, err := tc.HandleStatement(stmt); err != nil {
			return false, fmt.Errorf("error handling statement in 'then' block: %w", err)
		}
	}
	for _, stmt := range statement.ElseBlock {
		if _, err := tc.HandleStatement(stmt); err != nil {
			return false, fmt.Errorf("error handling statement in 'else' block: %w", err)
		}
	}
	return true, nil
}

func (tc *TypeChecker) HandleWhileStmt(statement WhileStmt) (bool, error) {
	if _, err := tc.HandleExpression(statement.Condition); err != nil {
		return false, fmt.Errorf("error handling while condition expression: %w", err)
	}
	for _, stmt := range statement.Block {
		if _, err := tc.HandleStatement(stmt); err != nil {
			return false, fmt.Errorf("error handling statement in while block: %w", err)
		}
	}
	return true, nil
}

func (tc *TypeChecker) HandleReturnStmt(statement ReturnStmt) (bool, error) {
	if statement.Expr == nil {
		return true, nil
	}
	if _, err := tc.HandleExpression(statement.Expr); err != nil {
		return false, fmt.Errorf("error handling return expression: %w", err)
	}
	return true, nil
}

// Generalized function to resolve multiple expression types.
func (tc *TypeChecker) HandleExpression(expr Expression) (bool, error) {
	switch tExpr := expr.(type) {
	case VarExpr:
		return tc.HandleVarExpr(tExpr)
	case LiteralExpr:
		return true, nil // Literals carry no symbol to resolve
	case ArrayExpr:
		return tc.HandleArrayExpr(tExpr)
	case UnaryExpr:
		return tc.HandleExpression(tExpr.Rhs)
	case BinaryExpr:
		if _, err := tc.HandleExpression(tExpr.Lhs); err != nil {
			return false, err
		}
		return tc.HandleExpression(tExpr.Rhs)
	case FuncCallExpr:
		return tc.HandleFuncCallExpr(tExpr)
	default:
		return false, fmt.Errorf("unrecognized expression: %T", expr)
	}
}

func (tc *TypeChecker) HandleVarExpr(expression VarExpr) (bool, error) {
	if expression.Var == "this" {
		return true, nil
	}
	if _, _, err := tc.scopes.ResolveVariable(expression.Var); err != nil {
		return false, fmt.Errorf("error resolving variable '%s': %w", expression.Var, err)
	}
	return true, nil
}

func (tc *TypeChecker) HandleArrayExpr(expression ArrayExpr) (bool, error) {
	if _, _, err := tc.scopes.ResolveVariable(expression.Var); err != nil {
		return false, fmt.Errorf("error resolving array base '%s': %w", expression.Var, err)
	}
	if _, err := tc.HandleExpression(expression.Index); err != nil {
		return false, fmt.Errorf("error handling index expression: %w", err)
	}
	return true, nil
}

// Resolves a subroutine call, verifying the target class/subroutine exists and that the
// number of arguments provided at the call site matches the declared parameter count.
func (tc *TypeChecker) HandleFuncCallExpr(expression FuncCallExpr) (bool, error) {
	for _, arg := range expression.Arguments {
		if _, err := tc.HandleExpression(arg); err != nil {
			return false, fmt.Errorf("error handling argument expression: %w", err)
		}
	}

	if !expression.IsExtCall {
		className := strings.Split(tc.scopes.GetScope(), ".")[0]

		class, exists := tc.program[className]
		if !exists {
			return false, fmt.Errorf("class definition not found for '%s'", className)
		}
		routine, exists := class.Subroutines.Get(expression.FuncName)
		if !exists {
			return false, fmt.Errorf("subroutine '%s' not found in class '%s'", expression.FuncName, className)
		}
		if len(expression.Arguments) != len(routine.Arguments) {
			return false, fmt.Errorf("subroutine '%s.%s' expects %d argument(s), got %d",
				className, expression.FuncName, len(routine.Arguments), len(expression.Arguments))
		}
		return true, nil
	}

	// External call on a live variable: resolve the variable and dispatch via its class.
	if _, variable, err := tc.scopes.ResolveVariable(expression.Var); err == nil {
		if variable.DataType != Object {
			return false, fmt.Errorf("variable '%s' is not an object", expression.Var)
		}

		class, exists := tc.program[variable.ClassName]
		if !exists {
			return false, fmt.Errorf("class definition not found for '%s'", variable.ClassName)
		}
		routine, exists := class.Subroutines.Get(expression.FuncName)
		if !exists {
			return false, fmt.Errorf("subroutine '%s' not found in class '%s'", expression.FuncName, variable.ClassName)
		}
		if len(expression.Arguments) != len(routine.Arguments) {
			return false, fmt.Errorf("subroutine '%s.%s' expects %d argument(s), got %d",
				variable.ClassName, expression.FuncName, len(routine.Arguments), len(expression.Arguments))
		}
		return true, nil
	}

	// Otherwise it must be a static function or constructor call on a known class.
	class, isClass := tc.program[expression.Var]
	if !isClass {
		return false, fmt.Errorf("unrecognized function call target: '%s'", expression.Var)
	}

	routine, exists := class.Subroutines.Get(expression.FuncName)
	if !exists {
		return false, fmt.Errorf("subroutine '%s' not found in class '%s'", expression.FuncName, class.Name)
	}
	if routine.Type != Function && routine.Type != Constructor {
		return false, fmt.Errorf("subroutine '%s' in class '%s' is not a function or constructor, got %s", expression.FuncName, class.Name, routine.Type)
	}
	if len(expression.Arguments) != len(routine.Arguments) {
		return false, fmt.Errorf("subroutine '%s.%s' expects %d argument(s), got %d",
			class.Name, expression.FuncName, len(routine.Arguments), len(expression.Arguments))
	}

	return true, nil
}
