package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/drum/internal/features/admission"
	"serotonyl.ru/drum/internal/features/chambers"
	"serotonyl.ru/drum/internal/features/links"
)

func TestDecisionOutput_RejectionPrintsDetailVerbatim(t *testing.T) {
	detail := "Automod checks failed:\n* caps (score 0.90)\nFine: 3.00"
	out, rejected := decisionOutput(admission.Decision{Reason: admission.ReasonAutomod, Detail: detail})

	assert.True(t, rejected)
	assert.Equal(t, detail, out)
}

func TestDecisionOutput_Accepted(t *testing.T) {
	out, rejected := decisionOutput(admission.Decision{Accepted: true, Thread: &links.Thread{ID: 7, Chamber: "golang"}})
	assert.False(t, rejected)
	assert.Equal(t, "принято: тред #7 в 'golang'", out)

	out, rejected = decisionOutput(admission.Decision{Accepted: true, Comment: &links.Comment{ID: 3, ThreadID: 7}})
	assert.False(t, rejected)
	assert.Equal(t, "принято: комментарий #3 к треду #7", out)

	out, rejected = decisionOutput(admission.Decision{Accepted: true, Chamber: &chambers.Chamber{Name: "golang"}})
	assert.False(t, rejected)
	assert.Equal(t, "принято: палата 'golang'", out)
}
