package notebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seralvarez/dstree/internal/models"
)

func TestInsertSnippet_AfterFocusedCell(t *testing.T) {
	nb := New()
	first := nb.Append("a = 1")
	nb.Append("b = 2")

	nb.SetFocus(first)
	id := nb.InsertSnippet("view(df)")

	cells := nb.Cells()
	require.Len(t, cells, 3)
	assert.Equal(t, id, cells[1].ID, "snippet should land right after the focused cell")
	assert.Equal(t, "view(df)", cells[1].Code)
}

func TestInsertSnippet_DefaultPlacementWithoutFocus(t *testing.T) {
	nb := New()
	nb.Append("a = 1")

	id := nb.InsertSnippet("view(df)")

	cells := nb.Cells()
	require.Len(t, cells, 2)
	assert.Equal(t, id, cells[1].ID)
}

func TestInsertSnippet_FocusedCellGone(t *testing.T) {
	nb := New()
	nb.SetFocus("deleted-cell")
	nb.Append("a = 1")

	nb.InsertSnippet("view(df)")

	cells := nb.Cells()
	require.Len(t, cells, 2)
	assert.Equal(t, "view(df)", cells[1].Code)
}

func TestEnsureImport_Idempotent(t *testing.T) {
	nb := New()
	nb.Append("b = 2")

	nb.EnsureImport(`use "datakit"`)
	nb.EnsureImport(`use "datakit"`)

	cells := nb.Cells()
	require.Len(t, cells, 2)
	assert.Equal(t, `use "datakit"`, cells[0].Code, "import cell should be prepended once")
}

func TestEnsureImport_RecognizesExistingLine(t *testing.T) {
	nb := New()
	nb.Append("use \"datakit\"\ndf = sql.load(\"t\")")

	nb.EnsureImport(`use "datakit"`)

	assert.Len(t, nb.Cells(), 1)
}

func TestTables_SortedByDeclarationOrder(t *testing.T) {
	nb := New()
	c1 := nb.Append("early = sql.load(\"a\")")
	c2 := nb.Append("late = sql.load(\"b\")")

	nb.DeclareTable("late", c2, models.Table{Name: "late"})
	nb.DeclareTable("early", c1, models.Table{Name: "early"})

	tables := nb.Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, "early", tables[0].Name)
	assert.Equal(t, "late", tables[1].Name)
	assert.Equal(t, models.SourceLocal, tables[0].Source)
}

func TestDropVariable(t *testing.T) {
	nb := New()
	c := nb.Append("df = load()")
	nb.DeclareTable("df", c, models.Table{Name: "df"})

	nb.DropVariable("df")

	assert.Empty(t, nb.Tables())
	assert.Empty(t, nb.VariableCells())
}
