package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSprintValidate(t *testing.T) {
	valid := func() *Sprint {
		return &Sprint{
			Name:      "Sprint 1",
			StartDate: NewDate(2024, time.January, 1),
			EndDate:   NewDate(2024, time.January, 2),
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		s := valid()
		s.Name = ""
		assert.ErrorIs(t, s.Validate(), ErrSprintNameRequired)
	})

	t.Run("missing dates", func(t *testing.T) {
		s := valid()
		s.EndDate = Date{}
		assert.ErrorIs(t, s.Validate(), ErrSprintDatesMissing)
	})

	t.Run("end equals start", func(t *testing.T) {
		s := valid()
		s.EndDate = s.StartDate
		assert.ErrorIs(t, s.Validate(), ErrSprintDateOrder)
	})

	t.Run("end before start", func(t *testing.T) {
		s := valid()
		s.StartDate = NewDate(2024, time.January, 5)
		assert.ErrorIs(t, s.Validate(), ErrSprintDateOrder)
	})

	t.Run("one day sprint is valid", func(t *testing.T) {
		// 2024-01-01 to 2024-01-02 is the minimum valid window.
		assert.NoError(t, valid().Validate())
	})
}

func TestProjectValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p := &Project{Name: "Tracker", Key: "TRK"}
		assert.NoError(t, p.Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		p := &Project{Key: "TRK"}
		assert.ErrorIs(t, p.Validate(), ErrProjectNameRequired)
	})

	t.Run("bad keys", func(t *testing.T) {
		for _, key := range []string{"", "T", "TOOLONGG", "trk", "TR1"} {
			p := &Project{Name: "Tracker", Key: key}
			assert.ErrorIs(t, p.Validate(), ErrProjectKeyInvalid, "key %q", key)
		}
	})
}
