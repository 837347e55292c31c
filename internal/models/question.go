package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	MatchingPairs  QuestionType = "matching_pairs"
	ListenAndMatch QuestionType = "listen_and_match"
)

// LeftMediaType selects how the left anchor of a matching pair is presented.
type LeftMediaType string

const (
	LeftText  LeftMediaType = "text"
	LeftImage LeftMediaType = "image"
	LeftAudio LeftMediaType = "audio"
)

// Product policy caps, not storage constraints.
const (
	MaxPairs              = 8
	MaxQuestionsPerLesson = 12
	OptionCount           = 4
)

// Pair is one (left anchor, right label) entry. On the wire it is a two-element
// string tuple, matching the stored answer encoding.
type Pair struct {
	Left  string
	Right string
}

func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Left, p.Right})
}

func (p *Pair) UnmarshalJSON(data []byte) error {
	var tuple [2]string
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	p.Left, p.Right = tuple[0], tuple[1]
	return nil
}

// EncodePairs serializes correct pairs into the answer-key string stored on a
// matching question. Decoding the result yields the same length and order.
func EncodePairs(pairs []Pair) (string, error) {
	data, err := json.Marshal(pairs)
	if err != nil {
		return "", fmt.Errorf("failed to encode answer pairs: %w", err)
	}
	return string(data), nil
}

// DecodePairs parses a stored matching answer key.
func DecodePairs(answer string) ([]Pair, error) {
	var pairs []Pair
	if err := json.Unmarshal([]byte(answer), &pairs); err != nil {
		return nil, fmt.Errorf("failed to decode answer pairs: %w", err)
	}
	return pairs, nil
}

// ImageOption is the option shape used by listen_and_match questions.
type ImageOption struct {
	ImageURL string `json:"imageUrl"`
}

// QuestionPayload is the create/update body sent to the question API. Fields
// that do not apply to the question type are left zero and omitted.
type QuestionPayload struct {
	LessonID     string        `json:"lesson_id"`
	Position     int           `json:"position"`
	QuestionText string        `json:"question_text"`
	QuestionType QuestionType  `json:"question_type"`
	Explanation  string        `json:"explanation,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Options      any           `json:"options,omitempty"`
	Answer       string        `json:"answer,omitempty"`
	Pairs        []Pair        `json:"pairs,omitempty"`
	LeftType     LeftMediaType `json:"left_type,omitempty"`
	ImageURL     string        `json:"image_url,omitempty"`
	AudioURL     string        `json:"audio_url,omitempty"`
}

// Question is the record shape returned by the question API.
type Question struct {
	ID           string          `json:"id"`
	LessonID     string          `json:"lesson_id"`
	Position     int             `json:"position"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	Explanation  string          `json:"explanation"`
	Tags         []string        `json:"tags"`
	Options      json.RawMessage `json:"options"`
	Answer       string          `json:"answer"`
	Pairs        []Pair          `json:"pairs"`
	LeftType     LeftMediaType   `json:"left_type"`
	ImageURL     string          `json:"image_url"`
	AudioURL     string          `json:"audio_url"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TextOptions decodes Options for the types that store plain strings.
func (q *Question) TextOptions() []string {
	var opts []string
	if len(q.Options) == 0 {
		return nil
	}
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// ImageOptions decodes Options for listen_and_match questions.
func (q *Question) ImageOptions() []ImageOption {
	var opts []ImageOption
	if len(q.Options) == 0 {
		return nil
	}
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}
