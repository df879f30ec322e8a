package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const codeExecTimeout = 10 * time.Second

// ExecOutput is the payload of a code execution result.
type ExecOutput struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

type codeRunner struct {
	command string
	args    []string
}

// Interpreters are invoked inline. This is best-effort local execution, not
// a sandbox; deployments that need isolation must swap these runners out.
var codeRunners = map[string]codeRunner{
	"python":     {command: "python3", args: []string{"-c"}},
	"javascript": {command: "node", args: []string{"-e"}},
}

// NewCodeExecTool returns the execute_code tool.
func NewCodeExecTool() *Tool {
	return &Tool{
		Name:        "execute_code",
		Description: "Execute code in Python or JavaScript",
		Category:    CategoryCode,
		Params: []Param{
			{Name: "language", Type: TypeString, Description: "Programming language (python or javascript)", Required: true},
			{Name: "code", Type: TypeString, Description: "Code to execute", Required: true},
		},
		Run: runCode,
	}
}

func runCode(ctx context.Context, params map[string]any) (any, error) {
	language, _ := params["language"].(string)
	code, _ := params["code"].(string)

	runner, ok := codeRunners[language]
	if !ok {
		return nil, fmt.Errorf("Unsupported language: %s", language)
	}

	ctx, cancel := context.WithTimeout(ctx, codeExecTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, runner.command, append(runner.args, code)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := ExecOutput{Output: strings.TrimRight(stdout.String(), "\n")}
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		out.Error = "execution timed out"
	case err != nil:
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		out.Error = msg
	}
	return out, nil
}
