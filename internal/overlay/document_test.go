package overlay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestParse_Actions(t *testing.T) {
	doc, err := Parse(readFixture(t, "create_ops.yaml"))
	require.NoError(t, err)

	require.True(t, doc.HasActions)
	require.Len(t, doc.Actions, 3)
	assert.Equal(t, "$.paths", doc.Actions[0].Target)
	assert.Equal(t, 2, doc.Actions[2].Index)
	assert.Nil(t, doc.Actions[2].Update, "remove action has no update")

	paths := doc.Actions[0].Update.Paths
	require.Len(t, paths, 2)
	assert.Equal(t, "/pipelines", paths[0].Path)
	assert.Equal(t, "Pipeline#create", paths[0].Post.Tag())
	assert.Equal(t, []string{"200"}, paths[0].Post.Responses.Codes())
}

func TestParse_NoActions(t *testing.T) {
	doc, err := Parse(readFixture(t, "no_actions.yaml"))
	require.NoError(t, err)
	assert.False(t, doc.HasActions)

	added, err := DefaultConflictRule().ApplyDocument(doc)
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestParse_Empty(t *testing.T) {
	doc, err := Parse(nil)
	require.NoError(t, err)
	assert.False(t, doc.HasActions)

	out, err := doc.Encode()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("actions: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing overlay")
}

func TestParse_MultipleDocumentsRejected(t *testing.T) {
	src := "actions:\n  - target: $.paths\n---\nsecond: document\n"

	_, err := Parse([]byte(src))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMultipleDocuments)
	assert.Contains(t, err.Error(), "more than one YAML document")
}

func TestParse_SingleExplicitDocument(t *testing.T) {
	doc, err := Parse([]byte("---\nactions: []\n"))
	require.NoError(t, err)
	assert.True(t, doc.HasActions)
	assert.Empty(t, doc.Actions)
}

func TestParse_ActionsNotSequence(t *testing.T) {
	_, err := Parse([]byte("actions:\n  target: $.paths\n"))
	require.Error(t, err)

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, KeyActions, shapeErr.Field)
	assert.Equal(t, "mapping", shapeErr.Got)
}

func TestParse_NonMappingActionsIgnored(t *testing.T) {
	doc, err := Parse([]byte("actions:\n  - just text\n  - target: $.info\n"))
	require.NoError(t, err)
	require.Len(t, doc.Actions, 1)
	assert.Equal(t, 1, doc.Actions[0].Index)
	assert.Nil(t, doc.Actions[0].Update)
}

func TestEncode_RoundTripIsStable(t *testing.T) {
	src := readFixture(t, "create_ops.yaml")
	doc, err := Parse(src)
	require.NoError(t, err)

	out, err := doc.Encode()
	require.NoError(t, err)
	assert.Equal(t, string(src), string(out))
}

func TestApplyDocument_Golden(t *testing.T) {
	doc, err := Parse(readFixture(t, "create_ops.yaml"))
	require.NoError(t, err)

	added, err := DefaultConflictRule().ApplyDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, []Insertion{
		{Action: 0, Path: "/pipelines", EntityOperation: "Pipeline#create"},
		{Action: 1, Path: "/actions", EntityOperation: "Action#create"},
	}, added)

	out, err := doc.Encode()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "create_ops", out)
}

func TestApplyDocument_SecondPassNoop(t *testing.T) {
	doc, err := Parse(readFixture(t, "golden/create_ops.golden"))
	require.NoError(t, err)

	added, err := DefaultConflictRule().ApplyDocument(doc)
	require.NoError(t, err)
	assert.Empty(t, added)
}
