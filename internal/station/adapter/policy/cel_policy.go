package policy

import (
	"context"
	"fmt"

	"evconnect/internal/station/domain/model"
	"evconnect/internal/station/domain/repository"

	"github.com/google/cel-go/cel"
)

// CELPolicy evaluates a compiled CEL expression for each access check. The expression
// sees auth {uid, email}, resource {userId, status, connectorType} and operation.
type CELPolicy struct {
	expression string
	program    cel.Program
}

// NewCELPolicy compiles expression once. It fails when the expression does not
// type-check or cannot produce a bool.
func NewCELPolicy(expression string) (*CELPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("auth", cel.DynType),
		cel.Variable("resource", cel.DynType),
		cel.Variable("operation", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("CEL access rule must return bool, got %s", out)
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &CELPolicy{expression: expression, program: program}, nil
}

// Expression returns the source of the compiled rule
func (p *CELPolicy) Expression() string {
	return p.expression
}

// Allow evaluates the rule for req
func (p *CELPolicy) Allow(ctx context.Context, req model.AccessRequest) (bool, error) {
	if req.Station == nil {
		return false, fmt.Errorf("access request has no station")
	}

	vars := map[string]interface{}{
		"auth": map[string]interface{}{
			"uid":   req.Caller.UserID,
			"email": req.Caller.Email,
		},
		"resource": map[string]interface{}{
			"userId":        req.Station.OwnerID.Hex(),
			"status":        string(req.Station.Status),
			"connectorType": string(req.Station.ConnectorType),
		},
		"operation": string(req.Operation),
	}

	out, _, err := p.program.ContextEval(ctx, vars)
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %w", err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return boolean value")
	}
	return allowed, nil
}

var _ repository.AccessPolicy = (*CELPolicy)(nil)
