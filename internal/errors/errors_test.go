package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"suitecompare/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	cause := stderrors.New("disk full")

	assert.Equal(t, "bad column", New(CodeSchema, "bad column").Error())
	assert.Equal(t, "failed to write out.xlsx: disk full", Write("out.xlsx", cause).Error())
	assert.Equal(t, "disk full", WithCode(CodeWrite, cause).Error())
}

func TestWrap_KeepsInnermostCode(t *testing.T) {
	err := Wrap(Schema("missing required column %q", "instr_pct"), "consolidation")

	assert.Equal(t, CodeSchema, GetCode(err))
	assert.True(t, IsSchema(err))
	assert.Equal(t, `consolidation: missing required column "instr_pct"`, err.Error())
}

func TestWrap_PlainErrorBecomesInternal(t *testing.T) {
	err := Wrapf(fs.ErrPermission, "reading %s", "a.csv")

	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Nil(t, Wrapf(nil, "ignored %d", 1))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeNumeric, Schema("x"))
	assert.Equal(t, CodeNumeric, GetCode(err))
	assert.Equal(t, "x", err.Error())
	assert.Nil(t, WithCode(CodeNumeric, nil))
}

func TestHasCode_ThroughForeignWrappers(t *testing.T) {
	err := fmt.Errorf("stage failed: %w", MissingSource("data/unitarias/x.xlsx"))

	assert.True(t, IsMissingSource(err))
	assert.False(t, IsWrite(err))
	assert.False(t, IsNumeric(nil))
	assert.Equal(t, CodeMissingSource, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestIs_MatchesByCode(t *testing.T) {
	err := Wrap(Numeric("too few observations"), "normality")

	assert.ErrorIs(t, err, New(CodeNumeric, ""))
	assert.NotErrorIs(t, err, New(CodeSchema, ""))
	assert.ErrorIs(t, err, Numeric("too few observations"))
}

func TestNumeric_WrapsInsufficientData(t *testing.T) {
	err := Wrap(Numeric("levene needs at least %d groups, got %d", 2, 1), "variance")

	assert.ErrorIs(t, err, core.ErrInsufficientData)
	assert.True(t, IsNumeric(err))
	assert.Equal(t, "variance: levene needs at least 2 groups, got 1: insufficient data for analysis", err.Error())
	assert.NotErrorIs(t, WithCode(CodeNumeric, stderrors.New("zero variance")), core.ErrInsufficientData)
}
