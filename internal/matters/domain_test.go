package matters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plenario/plenario/internal/matters"
)

func TestSearchKeyFoldsCase(t *testing.T) {
	key := matters.SearchKey("PL-001/2026", "Iluminação Pública")
	assert.Equal(t, key, matters.SearchKey("pl-001/2026", "iluminação pública"),
		"write-time and query-time folding must agree")
	assert.NotEqual(t, "", key)
}

func TestMatterInputValidate(t *testing.T) {
	valid := matters.MatterInput{Code: "PL-001/2026", Title: "Street lighting"}
	assert.NoError(t, valid.Validate())

	noCode := valid
	noCode.Code = "  "
	assert.Error(t, noCode.Validate())

	noTitle := valid
	noTitle.Title = ""
	assert.Error(t, noTitle.Validate())

	badStatus := valid
	badStatus.Status = matters.Status("PENDING")
	assert.Error(t, badStatus.Validate())

	withStatus := valid
	withStatus.Status = matters.StatusOnAgenda
	assert.NoError(t, withStatus.Validate())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, matters.StatusDraft.Valid())
	assert.True(t, matters.StatusArchived.Valid())
	assert.False(t, matters.Status("DELETED").Valid())
}
