package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPairLimitReached      = fmt.Errorf("a question can hold at most %d matching pairs", MaxPairs)
	ErrPairIndexOutOfRange   = errors.New("pair index out of range")
	ErrOptionIndexOutOfRange = errors.New("option index out of range")
	ErrLeftAnchorNotText     = errors.New("left anchors are not text for this question")
	ErrLeftAnchorNotMedia    = errors.New("left anchors are text for this question")
	ErrInvalidTrueFalse      = errors.New(`true/false answer must be "True" or "False"`)
)

// QuestionDraft is the single in-memory question under authoring. It is a
// tagged union over the four question types: every field stays allocated
// across type switches, and BuildPayload is the exhaustive gate deciding what
// each type actually emits.
type QuestionDraft struct {
	LessonID    string        `json:"lesson_id"`
	Position    int           `json:"position"`
	Type        QuestionType  `json:"question_type"`
	Text        string        `json:"question_text"`
	Explanation string        `json:"explanation"`
	Tags        []string      `json:"tags"`
	Answer      string        `json:"answer"`
	Options     []string      `json:"options"`

	Image MediaRef `json:"image"`
	Audio MediaRef `json:"audio"`

	// listen_and_match image distractors, one slot per option.
	OptionImages []MediaRef `json:"option_images"`

	// matching_pairs state. Pairs (candidate) and CorrectPairs (answer key)
	// are parallel and index-aligned; PairMedia is the per-pair upload buffer
	// used when LeftType is image or audio.
	LeftType     LeftMediaType `json:"left_type"`
	Pairs        []Pair        `json:"pairs"`
	CorrectPairs []Pair        `json:"correct_pairs"`
	PairMedia    []MediaRef    `json:"pair_media"`
}

// NewQuestionDraft returns an empty draft bound to a lesson at the given
// ordinal position.
func NewQuestionDraft(lessonID string, position int) *QuestionDraft {
	d := &QuestionDraft{LessonID: lessonID, Position: position}
	d.Reset()
	d.Position = position
	return d
}

// Reset clears the draft back to its initial empty state, keeping the lesson
// binding. Position is managed by the session counter, not here.
func (d *QuestionDraft) Reset() {
	d.Type = MultipleChoice
	d.Text = ""
	d.Explanation = ""
	d.Answer = ""
	d.Tags = nil
	d.Options = make([]string, OptionCount)
	d.Image = EmptyMedia()
	d.Audio = EmptyMedia()
	d.OptionImages = emptyMediaSlots(OptionCount)
	d.LeftType = LeftText
	d.Pairs = nil
	d.CorrectPairs = nil
	d.PairMedia = nil
}

func emptyMediaSlots(n int) []MediaRef {
	slots := make([]MediaRef, n)
	for i := range slots {
		slots[i] = EmptyMedia()
	}
	return slots
}

// SetQuestionType switches the discriminant. Fields owned by other types stay
// in memory (stale) and are stripped by BuildPayload; switching into
// matching_pairs only initializes the pair arrays when absent. Never touches
// the network.
func (d *QuestionDraft) SetQuestionType(t QuestionType) {
	d.Type = t
	if t == MatchingPairs && d.Pairs == nil {
		d.Pairs = []Pair{}
		d.CorrectPairs = []Pair{}
		d.PairMedia = []MediaRef{}
	}
}

// SetAnswer records the authored answer. For true_false the domain is
// restricted; a stale free-text answer from a previous type is overwritten,
// never silently cleared.
func (d *QuestionDraft) SetAnswer(value string) error {
	if d.Type == TrueFalse {
		switch value {
		case "", "True", "False":
		default:
			return ErrInvalidTrueFalse
		}
	}
	d.Answer = value
	return nil
}

func (d *QuestionDraft) SetOption(i int, value string) error {
	if i < 0 || i >= len(d.Options) {
		return ErrOptionIndexOutOfRange
	}
	d.Options[i] = value
	return nil
}

func (d *QuestionDraft) AttachImage(file *PendingFile) { d.Image = PendingMedia(file) }
func (d *QuestionDraft) AttachAudio(file *PendingFile) { d.Audio = PendingMedia(file) }

func (d *QuestionDraft) AttachOptionImage(i int, file *PendingFile) error {
	if i < 0 || i >= len(d.OptionImages) {
		return ErrOptionIndexOutOfRange
	}
	d.OptionImages[i] = PendingMedia(file)
	return nil
}

// ===== PAIR SYNCHRONIZATION =====
//
// Every mutation below keeps len(Pairs) == len(CorrectPairs) == len(PairMedia).

// AddPair appends an empty pair to both sequences. Rejected once the pair cap
// is reached; the draft is left untouched in that case.
func (d *QuestionDraft) AddPair() error {
	if len(d.Pairs) >= MaxPairs {
		return ErrPairLimitReached
	}
	d.Pairs = append(d.Pairs, Pair{})
	d.CorrectPairs = append(d.CorrectPairs, Pair{})
	d.PairMedia = append(d.PairMedia, EmptyMedia())
	return nil
}

// RemovePair deletes index i from the candidate pairs, the answer key and the
// upload buffer, preserving the order of the remainder.
func (d *QuestionDraft) RemovePair(i int) error {
	if i < 0 || i >= len(d.Pairs) {
		return ErrPairIndexOutOfRange
	}
	d.Pairs = append(d.Pairs[:i], d.Pairs[i+1:]...)
	d.CorrectPairs = append(d.CorrectPairs[:i], d.CorrectPairs[i+1:]...)
	d.PairMedia = append(d.PairMedia[:i], d.PairMedia[i+1:]...)
	return nil
}

// SetPairLeft writes a text anchor. The left side is the non-ambiguous join
// key in text mode, so it is mirrored into the answer key atomically.
func (d *QuestionDraft) SetPairLeft(i int, value string) error {
	if i < 0 || i >= len(d.Pairs) {
		return ErrPairIndexOutOfRange
	}
	if d.LeftType != LeftText {
		return ErrLeftAnchorNotText
	}
	d.Pairs[i].Left = value
	d.CorrectPairs[i].Left = value
	return nil
}

// AttachPairMedia records a picked file for a non-text anchor: the file's
// display name becomes a temporary placeholder in both lefts and the handle
// waits in the buffer until upload time.
func (d *QuestionDraft) AttachPairMedia(i int, file *PendingFile) error {
	if i < 0 || i >= len(d.Pairs) {
		return ErrPairIndexOutOfRange
	}
	if d.LeftType == LeftText {
		return ErrLeftAnchorNotMedia
	}
	d.PairMedia[i] = PendingMedia(file)
	d.Pairs[i].Left = file.Name
	d.CorrectPairs[i].Left = file.Name
	return nil
}

// SetPairRight edits only the candidate label shown to the learner.
func (d *QuestionDraft) SetPairRight(i int, value string) error {
	if i < 0 || i >= len(d.Pairs) {
		return ErrPairIndexOutOfRange
	}
	d.Pairs[i].Right = value
	return nil
}

// SetCorrectRight edits only the learner-facing ground truth; the candidate
// label is never touched.
func (d *QuestionDraft) SetCorrectRight(i int, value string) error {
	if i < 0 || i >= len(d.CorrectPairs) {
		return ErrPairIndexOutOfRange
	}
	d.CorrectPairs[i].Right = value
	return nil
}

// SetLeftMediaType changes how left anchors are represented. Prior media
// bindings are invalidated (the buffer is cleared) but the pair count and all
// right-side answers survive; existing left values become stale placeholders
// until re-entered or re-uploaded.
func (d *QuestionDraft) SetLeftMediaType(t LeftMediaType) {
	d.LeftType = t
	for i := range d.PairMedia {
		d.PairMedia[i] = EmptyMedia()
	}
}

// ResolvePairMedia is called by the pipeline once a pair's left media has an
// object path: both lefts are rewritten from placeholder to the resolved path.
func (d *QuestionDraft) ResolvePairMedia(i int, objectPath string) error {
	if i < 0 || i >= len(d.Pairs) {
		return ErrPairIndexOutOfRange
	}
	d.PairMedia[i] = UploadedMedia(objectPath)
	d.Pairs[i].Left = objectPath
	d.CorrectPairs[i].Left = objectPath
	return nil
}

// ===== PAYLOAD BUILDING =====

// FilteredTags drops blank tag fields left behind by the editor.
func (d *QuestionDraft) FilteredTags() []string {
	var tags []string
	for _, tag := range d.Tags {
		if strings.TrimSpace(tag) != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// BuildPayload assembles the type-specific request body. The switch is
// exhaustive on purpose: fields belonging to other variants are never emitted,
// and media refs that have not resolved to object paths are stripped.
func (d *QuestionDraft) BuildPayload() *QuestionPayload {
	p := &QuestionPayload{
		LessonID:     d.LessonID,
		Position:     d.Position,
		QuestionText: d.Text,
		QuestionType: d.Type,
		Explanation:  d.Explanation,
		Tags:         d.FilteredTags(),
	}

	switch d.Type {
	case MultipleChoice:
		p.Options = append([]string(nil), d.Options...)
		p.Answer = d.Answer
		p.ImageURL = uploadedPath(d.Image)
		p.AudioURL = uploadedPath(d.Audio)

	case TrueFalse:
		p.Options = []string{"True", "False"}
		p.Answer = d.Answer
		p.ImageURL = uploadedPath(d.Image)
		p.AudioURL = uploadedPath(d.Audio)

	case MatchingPairs:
		opts := make([]string, len(d.Pairs))
		for i, pair := range d.Pairs {
			opts[i] = fmt.Sprintf("%s :: %s", pair.Left, pair.Right)
		}
		p.Options = opts
		p.Pairs = append([]Pair(nil), d.Pairs...)
		p.LeftType = d.LeftType
		if answer, err := EncodePairs(d.CorrectPairs); err == nil {
			p.Answer = answer
		}
		p.ImageURL = uploadedPath(d.Image)
		p.AudioURL = uploadedPath(d.Audio)

	case ListenAndMatch:
		// One slot per option, resolved or not. The answer is an index into
		// this list, so slots are never compacted out; an unresolved slot
		// emits an empty imageUrl.
		opts := make([]ImageOption, len(d.OptionImages))
		for i, ref := range d.OptionImages {
			if ref.IsUploaded() {
				opts[i].ImageURL = ref.ObjectPath
			}
		}
		p.Options = opts
		p.Answer = d.Answer
		p.AudioURL = uploadedPath(d.Audio)
	}

	return p
}

func uploadedPath(ref MediaRef) string {
	if ref.IsUploaded() {
		return ref.ObjectPath
	}
	return ""
}

// LoadQuestion populates a draft from an existing record for edit mode. A
// malformed stored answer key on a matching question degrades to an empty
// pair list rather than blocking the editor.
func (d *QuestionDraft) LoadQuestion(q *Question) {
	d.Reset()
	d.LessonID = q.LessonID
	d.Position = q.Position
	d.Type = q.QuestionType
	d.Text = q.QuestionText
	d.Explanation = q.Explanation
	d.Answer = q.Answer
	d.Tags = append([]string(nil), q.Tags...)

	if q.ImageURL != "" {
		d.Image = UploadedMedia(q.ImageURL)
	}
	if q.AudioURL != "" {
		d.Audio = UploadedMedia(q.AudioURL)
	}

	switch q.QuestionType {
	case MultipleChoice:
		if opts := q.TextOptions(); len(opts) > 0 {
			d.Options = make([]string, OptionCount)
			copy(d.Options, opts)
		}
	case ListenAndMatch:
		// Stored records hold one slot per option; a blank imageUrl means the
		// slot was never filled and stays empty in the draft.
		for i, opt := range q.ImageOptions() {
			if i >= len(d.OptionImages) {
				break
			}
			if opt.ImageURL != "" {
				d.OptionImages[i] = UploadedMedia(opt.ImageURL)
			}
		}
	case MatchingPairs:
		d.LeftType = q.LeftType
		if d.LeftType == "" {
			d.LeftType = LeftText
		}
		pairs, err := DecodePairs(q.Answer)
		if err != nil {
			pairs = nil
		}
		d.Answer = ""
		d.CorrectPairs = pairs
		if len(q.Pairs) == len(pairs) {
			d.Pairs = append([]Pair(nil), q.Pairs...)
		} else {
			d.Pairs = append([]Pair(nil), pairs...)
		}
		d.PairMedia = make([]MediaRef, len(pairs))
		for i := range d.PairMedia {
			if d.LeftType != LeftText && strings.TrimSpace(pairs[i].Left) != "" {
				d.PairMedia[i] = UploadedMedia(pairs[i].Left)
			} else {
				d.PairMedia[i] = EmptyMedia()
			}
		}
	}
}
