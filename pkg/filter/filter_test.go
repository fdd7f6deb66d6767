package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_LastMatchWins(t *testing.T) {
	f := New()
	f.Add(func(string) bool { return true }, true)
	f.Add(func(path string) bool { return path == "deny.txt" }, false)

	assert.False(t, f.Filter("deny.txt"), "expected deny.txt to be denied (last matching rule)")
	assert.True(t, f.Filter("ok.txt"), "expected ok.txt to be allowed")
}

func TestFilter_DefaultDenyWhenIncludesExist(t *testing.T) {
	f := New()
	f.Add(func(path string) bool { return path == "a.php" }, true)

	assert.False(t, f.Filter("unmatched.txt"), "expected default deny when include rules exist and none matched")
	assert.True(t, f.Filter("a.php"))
}

func TestFilter_DefaultAllowWhenNoIncludes(t *testing.T) {
	f := New()
	f.Add(func(path string) bool { return path == "denied.txt" }, false)

	assert.True(t, f.Filter("anything-else.txt"), "expected default allow when only exclude rules exist")
	assert.False(t, f.Filter("denied.txt"))
}

func TestFilter_RoundTrip(t *testing.T) {
	f := New()
	f.Add(func(path string) bool { return len(path) > 3 }, true)

	first := f.Filter("a.php")
	second := f.Filter("a.php")
	assert.Equal(t, first, second, "filtering the same path twice should yield the same decision")
}

func TestNewFromOptions_DefaultExtensions(t *testing.T) {
	f, err := NewFromOptions(Options{})
	require.NoError(t, err)

	assert.True(t, f.Filter("a.php"), "expected a.php allowed by default PHP rule")
	assert.True(t, f.Filter("index.html"), "expected index.html allowed by default HTML rule")
	assert.False(t, f.Filter("logo.png"), "expected logo.png denied without --images")
}

func TestNewFromOptions_Images(t *testing.T) {
	f, err := NewFromOptions(Options{Images: true})
	require.NoError(t, err)

	assert.True(t, f.Filter("logo.png"), "expected logo.png allowed with --images")
	assert.True(t, f.Filter("a.php"), "expected a.php still allowed")
}

func TestNewFromOptions_ExplicitIncludeSuppressesDefaults(t *testing.T) {
	f, err := NewFromOptions(Options{IncludeFiles: []string{"config.inc"}})
	require.NoError(t, err)

	assert.False(t, f.Filter("a.php"), "expected a.php denied when an explicit include list is set")
	assert.True(t, f.Filter("config.inc"))
}

func TestNewFromOptions_ExcludePattern(t *testing.T) {
	f, err := NewFromOptions(Options{ExcludeFilesPattern: []string{`/vendor/`}})
	require.NoError(t, err)

	assert.False(t, f.Filter("/site/vendor/a.php"), "expected vendor path excluded")
	assert.True(t, f.Filter("/site/app/a.php"), "expected non-vendor path allowed")
}
