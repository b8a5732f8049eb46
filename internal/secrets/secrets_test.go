package secrets

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls   []string
	outputs map[string]string
	fail    map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, _ string, name string, args ...string) ([]byte, error) {
	call := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, call)
	if f.fail[call] {
		return []byte(f.outputs[call]), errors.New("exit status 1")
	}
	return []byte(f.outputs[call]), nil
}

func TestSetup_FreshRepository(t *testing.T) {
	runner := &fakeRunner{}

	err := Setup(context.Background(), runner, Options{Force: true}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"git rev-parse --show-toplevel",
		"git secrets --list",
		"git secrets --install -f",
		"git secrets --register-aws",
		"git secrets --add " + GoogleAPIKeyPattern,
		"git secrets --add " + OpenAIKeyPattern,
		"git secrets --add --allowed GEMINI_API_KEY=your-gemini-api-key",
		"git secrets --add --allowed OPENAI_API_KEY=your-openai-api-key",
	}, runner.calls)
}

func TestSetup_SkipsRegisteredPatterns(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"git secrets --list": "secrets.providers git secrets --aws-provider\n" +
			"secrets.patterns " + GoogleAPIKeyPattern + "\n" +
			"secrets.allowed GEMINI_API_KEY=your-gemini-api-key\n",
	}}

	err := Setup(context.Background(), runner, Options{Scan: true}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"git rev-parse --show-toplevel",
		"git secrets --list",
		"git secrets --install",
		"git secrets --add " + OpenAIKeyPattern,
		"git secrets --add --allowed OPENAI_API_KEY=your-openai-api-key",
		"git secrets --scan",
	}, runner.calls)
}

func TestSetup_NotInstalled(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{"git secrets --list": "git: 'secrets' is not a git command. See 'git --help'."},
		fail:    map[string]bool{"git secrets --list": true},
	}

	err := Setup(context.Background(), runner, Options{}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNotInstalled)
	assert.Len(t, runner.calls, 2)
}

func TestSetup_AbortsOnFirstFailure(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{"git secrets --install": "hooks already exist"},
		fail:    map[string]bool{"git secrets --install": true},
	}

	err := Setup(context.Background(), runner, Options{}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "install hooks")
	assert.Contains(t, err.Error(), "hooks already exist")
	assert.Equal(t, "git secrets --install", runner.calls[len(runner.calls)-1])
}

func TestSetup_NotARepository(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{"git rev-parse --show-toplevel": true}}

	err := Setup(context.Background(), runner, Options{}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check repository")
	assert.Len(t, runner.calls, 1)
}

func TestPatterns(t *testing.T) {
	google := regexp.MustCompile(GoogleAPIKeyPattern)
	openai := regexp.MustCompile(OpenAIKeyPattern)

	assert.True(t, google.MatchString("GEMINI_API_KEY=AIza"+strings.Repeat("x", 35)))
	assert.False(t, google.MatchString("GEMINI_API_KEY=your-gemini-api-key"))
	assert.True(t, openai.MatchString("OPENAI_API_KEY=sk-proj-"+strings.Repeat("a", 24)))
	assert.False(t, openai.MatchString("OPENAI_API_KEY=your-openai-api-key"))
	assert.False(t, openai.MatchString("task-list"))
}
