package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// TengoEngine compiles and runs Tengo rule scripts.
type TengoEngine struct {
	securityLimits SecurityLimits
}

// NewTengoEngine creates a new Tengo engine with default security limits
func NewTengoEngine() *TengoEngine {
	return &TengoEngine{
		securityLimits: GetDefaultSecurityLimits(),
	}
}

// SetSecurityLimits configures resource and security constraints
func (e *TengoEngine) SetSecurityLimits(limits SecurityLimits) {
	e.securityLimits = limits
}

// CompiledScript is a script compiled once with its input variables
// declared. It is safe for concurrent use; every Run works on a clone.
type CompiledScript struct {
	Script   *Script
	compiled *tengo.Compiled
	timeout  time.Duration
}

// Compile prepares a script for execution. Every variable the script reads
// or writes must be declared in vars, with a value of the type it will
// later be given.
func (e *TengoEngine) Compile(script *Script, vars map[string]any) (*CompiledScript, error) {
	startTime := time.Now()

	tengoScript := tengo.NewScript([]byte(script.Content))
	tengoScript.SetImports(stdlib.GetModuleMap(e.securityLimits.AllowedPackages...))
	if e.securityLimits.MaxAllocs > 0 {
		tengoScript.SetMaxAllocs(e.securityLimits.MaxAllocs)
	}

	for name, value := range vars {
		if err := tengoScript.Add(name, value); err != nil {
			return nil, NewScriptError(ErrorTypeCompilation, script.Name,
				fmt.Sprintf("failed to declare variable %s", name), err)
		}
	}
	if err := e.addLoggingFunction(tengoScript, script.Name); err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, script.Name, "failed to add logging function", err)
	}

	compiled, err := tengoScript.Compile()
	if err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, script.Name, "failed to compile Tengo script", err)
	}

	slog.Debug("Tengo script compiled successfully",
		"script", script.Name,
		"compilation_time", time.Since(startTime),
	)

	return &CompiledScript{
		Script:   script,
		compiled: compiled,
		timeout:  e.securityLimits.MaxExecutionTime,
	}, nil
}

// Run executes a fresh copy of the script with the given variable values
// and returns that copy so the caller can read its results.
func (c *CompiledScript) Run(ctx context.Context, vars map[string]any) (*tengo.Compiled, error) {
	run := c.compiled.Clone()
	for name, value := range vars {
		if err := run.Set(name, value); err != nil {
			return nil, NewScriptError(ErrorTypeExecution, c.Script.Name,
				fmt.Sprintf("failed to set variable %s", name), err)
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := run.RunContext(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewScriptError(ErrorTypeTimeout, c.Script.Name, "script execution timed out", err)
		}
		return nil, NewScriptError(ErrorTypeExecution, c.Script.Name, "script execution failed", err)
	}
	return run, nil
}

// addLoggingFunction exposes log(msg) to scripts, writing to slog.
func (e *TengoEngine) addLoggingFunction(script *tengo.Script, name string) error {
	logFunc := &tengo.UserFunction{
		Name: "log",
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			message := args[0].String()
			if s, ok := tengo.ToString(args[0]); ok {
				message = s
			}
			slog.Info("Script log", "message", message, "script", name)
			return tengo.UndefinedValue, nil
		},
	}
	return script.Add("log", logFunc)
}
