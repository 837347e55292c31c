package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionDraft_PairSyncKeepsLengthsEqual(t *testing.T) {
	d := NewQuestionDraft("lesson-1", 1)
	d.SetQuestionType(MatchingPairs)

	for i := 0; i < 5; i++ {
		require.NoError(t, d.AddPair())
	}
	assert.Len(t, d.Pairs, 5)
	assert.Len(t, d.CorrectPairs, 5)
	assert.Len(t, d.PairMedia, 5)

	require.NoError(t, d.RemovePair(2))
	assert.Len(t, d.Pairs, 4)
	assert.Len(t, d.CorrectPairs, 4)
	assert.Len(t, d.PairMedia, 4)
}

func TestQuestionDraft_AddPairRespectsCap(t *testing.T) {
	d := NewQuestionDraft("lesson-1", 1)
	d.SetQuestionType(MatchingPairs)

	for i := 0; i < MaxPairs; i++ {
		require.NoError(t, d.AddPair())
	}

	err := d.AddPair()
	assert.ErrorIs(t, err, ErrPairLimitReached)
	assert.Len(t, d.Pairs, MaxPairs)
	assert.Len(t, d.CorrectPairs, MaxPairs)
	assert.Len(t, d.PairMedia, MaxPairs)
}

func TestQuestionDraft_SetPairLeftMirrorsIntoAnswerKey(t *testing.T) {
	d := NewQuestionDraft("lesson-1", 1)
	d.SetQuestionType(MatchingPairs)
	require.NoError(t, d.AddPair())

	require.NoError(t, d.SetPairLeft(0, "perro"))
	assert.Equal(t, "perro", d.Pairs[0].Left)
	assert.Equal(t, "perro", d.CorrectPairs[0].Left)

	// Right sides stay independent.
	require.NoError(t, d.SetPairRight(0, "dog"))
	require.NoError(t, d.SetCorrectRight(0, "the dog"))
	assert.Equal(t, "dog", d.Pairs[0].Right)
	assert.Equal(t, "the dog", d.CorrectPairs[0].Right)
}

func TestQuestionDraft_SetPairLeftRejectedInMediaMode(t *testing.T) {
	d := NewQuestionDraft("lesson-1", 1)
	d.SetQuestionType(MatchingPairs)
	require.NoError(t, d.AddPair())
	d.SetLeftMediaType(LeftImage)

	err := d.SetPairLeft(0, "perro")
	assert.ErrorIs(t, err, ErrLeftAnchorNotText)
}

func TestQuestionDraft_AttachPairMediaPlaceholder(t *testing.T) {
	d := NewQuestionDraft("lesson-1", 1)
	d.SetQuestionType(MatchingPairs)
	require.NoError(t, d.AddPair())
	d.SetLeftMediaType(LeftImage)

	file := &PendingFile{Name: "dog.png", MimeType: "image/png", Data: []byte{1}}
	require.NoError(t, d.AttachPairMedia(0, file))

	assert.Equal(t, "dog.png", d.Pairs[0].Left)
	assert.Equal(t, "dog.png", d.CorrectPairs[0].Left)
	assert.True(t, d.PairMedia[0].IsPending())

	require.NoError(t, d.ResolvePairMedia(0, "uploads/c/l/q/dog.png"))
	assert.Equal(t, "uploads/c/l/q/dog.png", d.Pairs[0].Left)
	assert.Equal(t, "uploads/c/l/q/dog.png", d.CorrectPairs[0].Left)
	assert.True(t, d.PairMedia[0].IsUploaded())
}

func TestQuestionDraft_SetLeftMediaTypeClearsBufferKeepsRights(t *testing.T) {
	d := NewQuestionDraft("lesson-1", 1)
	d.SetQuestionType(MatchingPairs)
	require.NoError(t, d.AddPair())
	d.SetLeftMediaType(LeftImage)
	require.NoError(t, d.AttachPairMedia(0, &PendingFile{Name: "dog.png"}))
	require.NoError(t, d.SetCorrectRight(0, "dog"))

	d.SetLeftMediaType(LeftAudio)

	assert.True(t, d.PairMedia[0].IsEmpty())
	assert.Equal(t, "dog", d.CorrectPairs[0].Right)
	assert.Len(t, d.Pairs, 1)
}

func TestQuestionDraft_TypeSwitchKeepsStaleFields(t *testing.T) {
	d := NewQuestionDraft("lesson-1", 1)
	d.SetOption(0, "option a")
	require.NoError(t, d.SetAnswer("option a"))

	d.SetQuestionType(TrueFalse)
	// The old option text survives in memory but never reaches the payload.
	assert.Equal(t, "option a", d.Options[0])

	p := d.BuildPayload()
	assert.Equal(t, []string{"True", "False"}, p.Options)

	d.SetQuestionType(MultipleChoice)
	p = d.BuildPayload()
	assert.Equal(t, []string{"option a", "", "", ""}, p.Options)
	assert.Equal(t, "option a", p.Answer)
}

func TestQuestionDraft_TrueFalseAnswerDomain(t *testing.T) {
	d := NewQuestionDraft("lesson-1", 1)
	d.SetQuestionType(TrueFalse)

	assert.NoError(t, d.SetAnswer("True"))
	assert.NoError(t, d.SetAnswer("False"))
	assert.NoError(t, d.SetAnswer(""))
	assert.ErrorIs(t, d.SetAnswer("yes"), ErrInvalidTrueFalse)
}

func TestQuestionDraft_MatchingPayload(t *testing.T) {
	d := NewQuestionDraft("lesson-7", 3)
	d.SetQuestionType(MatchingPairs)
	d.Text = "Match the words"

	require.NoError(t, d.AddPair())
	require.NoError(t, d.SetPairLeft(0, "a"))
	require.NoError(t, d.SetPairRight(0, "1"))
	require.NoError(t, d.SetCorrectRight(0, "1"))

	require.NoError(t, d.AddPair())
	require.NoError(t, d.SetPairLeft(1, "b"))
	require.NoError(t, d.SetPairRight(1, "2"))
	require.NoError(t, d.SetCorrectRight(1, "2"))

	p := d.BuildPayload()

	assert.Equal(t, []string{"a :: 1", "b :: 2"}, p.Options)
	assert.Equal(t, MatchingPairs, p.QuestionType)
	assert.Equal(t, 3, p.Position)

	decoded, err := DecodePairs(p.Answer)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Left: "a", Right: "1"}, {Left: "b", Right: "2"}}, decoded)
}

func TestQuestionDraft_ListenPayloadKeepsSlotAlignment(t *testing.T) {
	d := NewQuestionDraft("lesson-1", 1)
	d.SetQuestionType(ListenAndMatch)
	d.Answer = "2"

	// Slots 0 and 2 resolved, slot 1 still pending, slot 3 never touched.
	d.OptionImages[0] = UploadedMedia("uploads/a.png")
	require.NoError(t, d.AttachOptionImage(1, &PendingFile{Name: "b.png"}))
	d.OptionImages[2] = UploadedMedia("uploads/c.png")
	d.Audio = UploadedMedia("uploads/clip.mp3")

	p := d.BuildPayload()

	opts, ok := p.Options.([]ImageOption)
	require.True(t, ok)
	require.Len(t, opts, OptionCount)
	assert.Equal(t, "uploads/a.png", opts[0].ImageURL)
	assert.Empty(t, opts[1].ImageURL)
	assert.Equal(t, "uploads/c.png", opts[2].ImageURL)
	assert.Empty(t, opts[3].ImageURL)
	assert.Equal(t, "uploads/clip.mp3", p.AudioURL)
	assert.Empty(t, p.ImageURL)
}

func TestEncodeDecodePairsRoundTrip(t *testing.T) {
	pairs := []Pair{
		{Left: "perro", Right: "dog"},
		{Left: "gato", Right: "cat"},
		{Left: "", Right: ""},
	}

	encoded, err := EncodePairs(pairs)
	require.NoError(t, err)

	decoded, err := DecodePairs(encoded)
	require.NoError(t, err)
	assert.Equal(t, pairs, decoded)
}

func TestPairWireFormatIsTuple(t *testing.T) {
	data, err := json.Marshal(Pair{Left: "perro", Right: "dog"})
	require.NoError(t, err)
	assert.JSONEq(t, `["perro","dog"]`, string(data))
}

func TestDecodePairsRejectsMalformed(t *testing.T) {
	_, err := DecodePairs(`{"not":"a list"}`)
	assert.Error(t, err)
}

func TestQuestionDraft_LoadQuestionMatching(t *testing.T) {
	answer, err := EncodePairs([]Pair{{Left: "a", Right: "1"}, {Left: "b", Right: "2"}})
	require.NoError(t, err)

	q := &Question{
		ID:           "q-1",
		LessonID:     "lesson-1",
		Position:     4,
		QuestionType: MatchingPairs,
		QuestionText: "Match",
		Answer:       answer,
		LeftType:     LeftText,
	}

	d := NewQuestionDraft("lesson-1", 4)
	d.LoadQuestion(q)

	assert.Equal(t, []Pair{{Left: "a", Right: "1"}, {Left: "b", Right: "2"}}, d.CorrectPairs)
	assert.Len(t, d.Pairs, 2)
	assert.Len(t, d.PairMedia, 2)
	assert.Empty(t, d.Answer)
}

func TestQuestionDraft_LoadQuestionMalformedAnswerDegrades(t *testing.T) {
	q := &Question{
		ID:           "q-1",
		LessonID:     "lesson-1",
		Position:     1,
		QuestionType: MatchingPairs,
		Answer:       "not json",
	}

	d := NewQuestionDraft("lesson-1", 1)
	d.LoadQuestion(q)

	assert.Empty(t, d.Pairs)
	assert.Empty(t, d.CorrectPairs)
	assert.Empty(t, d.PairMedia)
}

func TestQuestionDraft_LoadQuestionMediaLefts(t *testing.T) {
	answer, err := EncodePairs([]Pair{{Left: "uploads/dog.png", Right: "dog"}})
	require.NoError(t, err)

	q := &Question{
		ID:           "q-1",
		LessonID:     "lesson-1",
		Position:     1,
		QuestionType: MatchingPairs,
		Answer:       answer,
		LeftType:     LeftImage,
	}

	d := NewQuestionDraft("lesson-1", 1)
	d.LoadQuestion(q)

	require.Len(t, d.PairMedia, 1)
	assert.True(t, d.PairMedia[0].IsUploaded())
	assert.Equal(t, "uploads/dog.png", d.PairMedia[0].ObjectPath)
}

func TestQuestionDraft_LoadQuestionListenBlankSlots(t *testing.T) {
	q := &Question{
		ID:           "q-1",
		LessonID:     "lesson-1",
		Position:     1,
		QuestionType: ListenAndMatch,
		Options:      json.RawMessage(`[{"imageUrl":"uploads/a.png"},{"imageUrl":""},{"imageUrl":"uploads/c.png"},{"imageUrl":""}]`),
		Answer:       "2",
		AudioURL:     "uploads/clip.mp3",
	}

	d := NewQuestionDraft("lesson-1", 1)
	d.LoadQuestion(q)

	assert.True(t, d.OptionImages[0].IsUploaded())
	assert.True(t, d.OptionImages[1].IsEmpty())
	assert.True(t, d.OptionImages[2].IsUploaded())
	assert.True(t, d.OptionImages[3].IsEmpty())
	assert.Equal(t, "2", d.Answer)
}

func TestQuestionDraft_FilteredTags(t *testing.T) {
	d := NewQuestionDraft("lesson-1", 1)
	d.Tags = []string{"vocab", "  ", "", "animals"}

	assert.Equal(t, []string{"vocab", "animals"}, d.FilteredTags())
}

func TestQuestionDraft_ResetKeepsLessonBinding(t *testing.T) {
	d := NewQuestionDraft("lesson-9", 5)
	d.SetQuestionType(MatchingPairs)
	require.NoError(t, d.AddPair())
	d.Text = "something"

	d.Reset()

	assert.Equal(t, "lesson-9", d.LessonID)
	assert.Equal(t, 5, d.Position)
	assert.Equal(t, MultipleChoice, d.Type)
	assert.Empty(t, d.Text)
	assert.Nil(t, d.Pairs)
}
