package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wizenheimer/tripwire"
)

const testLexicon = `words:
  - word: kill
    score: 10
  - word: hurt you*
    score: 20
  - word: movie
    score: -2
`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer

	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)

	err := app.Run(append([]string{"tripwire"}, args...))
	return out.String(), err
}

func writeLexicon(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testLexicon), 0o600))
	return path
}

func decodeResults(t *testing.T, out string) []Result {
	t.Helper()
	var results []Result
	require.NoError(t, json.Unmarshal([]byte(out), &results), out)
	return results
}

func TestAnalyze_Args(t *testing.T) {
	out, err := run(t, "", "--lexicon", writeLexicon(t), "analyze", "I will hurt", "your family")
	require.NoError(t, err)

	assert.Equal(t, []Result{{Source: sourceArgs, Score: 20}}, decodeResults(t, out))
}

func TestAnalyze_Stdin(t *testing.T) {
	out, err := run(t, "kill", "--lexicon", writeLexicon(t), "analyze")
	require.NoError(t, err)

	assert.Equal(t, []Result{{Source: sourceStdin, Score: 20}}, decodeResults(t, out))
}

func TestAnalyze_DefaultLexicon(t *testing.T) {
	out, err := run(t, "", "analyze", "You should kill yourself")
	require.NoError(t, err)

	results := decodeResults(t, out)
	require.Len(t, results, 1)
	assert.Equal(t, tripwire.Default().Analyze("You should kill yourself"), results[0].Score)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestAnalyze_Files(t *testing.T) {
	dir := t.TempDir()
	texts := []string{"kill", "a safe text", "I will hurt your family", "kill movie"}
	paths := make([]string, len(texts))
	args := []string{"--lexicon", writeLexicon(t), "analyze"}
	for i, text := range texts {
		paths[i] = filepath.Join(dir, string(rune('a'+i))+".txt")
		require.NoError(t, os.WriteFile(paths[i], []byte(text), 0o600))
		args = append(args, "--file", paths[i])
	}

	out, err := run(t, "", args...)
	require.NoError(t, err)

	results := decodeResults(t, out)
	require.Len(t, results, len(texts))
	// "kill movie": words kill and movie (8) plus the first window "kill" (10)
	want := []float64{20, 0, 20, 18}
	for i, r := range results {
		assert.Equal(t, paths[i], r.Source)
		assert.Equal(t, want[i], r.Score, r.Source)
	}
}

func TestAnalyze_MissingFile(t *testing.T) {
	_, err := run(t, "", "analyze", "--file", filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnalyze_Threshold(t *testing.T) {
	lexicon := writeLexicon(t)

	_, err := run(t, "", "--lexicon", lexicon, "analyze", "--threshold", "20", "kill")
	assert.ErrorIs(t, err, ErrThresholdExceeded)

	_, err = run(t, "", "--lexicon", lexicon, "analyze", "--threshold", "21", "kill")
	assert.NoError(t, err)
}

func TestAnalyze_ExplainYAML(t *testing.T) {
	out, err := run(t, "", "--lexicon", writeLexicon(t), "--format", "yaml", "analyze", "--explain", "kill")
	require.NoError(t, err)

	var results []Result
	require.NoError(t, yaml.Unmarshal([]byte(out), &results), out)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Report)
	assert.Equal(t, 20.0, results[0].Report.Score)
	assert.Len(t, results[0].Report.Matches, 2)
}

func TestAnalyze_InvalidLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("words:\n  - word: \"\"\n    score: 1\n"), 0o600))

	_, err := run(t, "", "--lexicon", path, "analyze", "kill")
	assert.ErrorIs(t, err, tripwire.ErrInvalidConfig)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "", "--format", "xml", "analyze", "kill")
	assert.Error(t, err)
}

func TestLexicon_Validate(t *testing.T) {
	out, err := run(t, "", "lexicon", "validate", writeLexicon(t))
	require.NoError(t, err)

	var summaries []LexiconSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].Entries)
	assert.Equal(t, 1, summaries[0].Wildcards)
	assert.Equal(t, 1, summaries[0].Negative)
}

func TestLexicon_ValidateRequiresPath(t *testing.T) {
	_, err := run(t, "", "lexicon", "validate")
	assert.Error(t, err)
}

func TestLexicon_ShowDefault(t *testing.T) {
	out, err := run(t, "", "lexicon", "show")
	require.NoError(t, err)

	var lex tripwire.Lexicon
	require.NoError(t, json.Unmarshal([]byte(out), &lex))
	assert.Equal(t, tripwire.DefaultLexicon(), lex)
}

func TestLexicon_CompileAndUse(t *testing.T) {
	out := filepath.Join(t.TempDir(), "compiled.lex")

	_, err := run(t, "", "lexicon", "compile", writeLexicon(t), out)
	require.NoError(t, err)
	assert.FileExists(t, out)

	stdout, err := run(t, "", "--lexicon", out, "analyze", "kill")
	require.NoError(t, err)
	assert.Equal(t, []Result{{Source: sourceArgs, Score: 20}}, decodeResults(t, stdout))
}

func TestLexicon_CompileRejectsNonBinaryOutput(t *testing.T) {
	_, err := run(t, "", "lexicon", "compile", writeLexicon(t), filepath.Join(t.TempDir(), "out.yaml"))
	assert.Error(t, err)
}

func TestConfig_InitAndUse(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".tripwire")

	_, err := run(t, "", "config", "init", "--dir", dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "config.yaml")
	require.FileExists(t, path)

	lexicon := writeLexicon(t)
	require.NoError(t, os.WriteFile(path, []byte("lexicon: "+lexicon+"\nformat: yaml\n"), 0o600))

	out, err := run(t, "", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "format: yaml")
	assert.Contains(t, out, "lexicon: "+lexicon)

	out, err = run(t, "", "--config", path, "analyze", "kill")
	require.NoError(t, err)
	assert.Contains(t, out, "score: 20")
}
