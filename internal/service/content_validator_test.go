package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/damoang/qna-revision/internal/common"
	"github.com/damoang/qna-revision/internal/domain"
	"github.com/damoang/qna-revision/pkg/sanitizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock TagRepository ---

type mockTagRepo struct {
	mock.Mock
}

func (m *mockTagRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func strp(s string) *string { return &s }

const longEnoughBody = "<p>This body is comfortably longer than twenty characters.</p>"

func TestValidate_NormalizesFields(t *testing.T) {
	tags := new(mockTagRepo)
	tags.On("Exists", mock.Anything, uint64(1)).Return(true, nil)
	tags.On("Exists", mock.Anything, uint64(2)).Return(true, nil)
	v := NewContentValidator(sanitizer.NewRichTextSanitizer(), tags)

	out, err := v.Validate(context.Background(), domain.KindQuestion, domain.FieldValues{
		Title:  strp("  Padded title  "),
		Body:   strp(longEnoughBody + `<script>alert(1)</script>`),
		TagIDs: []uint64{2, 1},
	})

	require.NoError(t, err)
	assert.Equal(t, "Padded title", *out.Title)
	assert.NotContains(t, *out.Body, "<script>")
	assert.Contains(t, *out.Body, "comfortably longer")
	assert.Equal(t, []uint64{2, 1}, out.TagIDs)
	tags.AssertExpectations(t)
}

func TestValidate_AbsentFieldsStayAbsent(t *testing.T) {
	v := NewContentValidator(sanitizer.NewRichTextSanitizer(), new(mockTagRepo))

	out, err := v.Validate(context.Background(), domain.KindQuestion, domain.FieldValues{})
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())
}

func TestValidate_Violations(t *testing.T) {
	tags := new(mockTagRepo)
	tags.On("Exists", mock.Anything, uint64(1)).Return(true, nil)
	tags.On("Exists", mock.Anything, uint64(99)).Return(false, nil)
	v := NewContentValidator(sanitizer.NewRichTextSanitizer(), tags)

	tests := []struct {
		name     string
		kind     domain.ContentKind
		proposed domain.FieldValues
		field    string
		message  string
	}{
		{"empty title", domain.KindQuestion, domain.FieldValues{Title: strp("   ")}, "title", "Title is required"},
		{"long title", domain.KindQuestion, domain.FieldValues{Title: strp(strings.Repeat("a", 121))}, "title", "Title must not exceed 120 characters"},
		{"title on answer", domain.KindAnswer, domain.FieldValues{Title: strp("hello")}, "title", "Answers do not have a title"},
		{"short body", domain.KindAnswer, domain.FieldValues{Body: strp("<p>too short</p>")}, "body", "Body must be at least 20 characters"},
		{"body of only markup", domain.KindAnswer, domain.FieldValues{Body: strp("<script>" + strings.Repeat("x", 40) + "</script>")}, "body", "Body must be at least 20 characters"},
		{"no tags", domain.KindQuestion, domain.FieldValues{TagIDs: []uint64{}}, "tags", "At least one tag is required"},
		{"too many tags", domain.KindQuestion, domain.FieldValues{TagIDs: []uint64{1, 2, 3, 4, 5, 6}}, "tags", "Maximum 5 tags allowed"},
		{"duplicate tags", domain.KindQuestion, domain.FieldValues{TagIDs: []uint64{1, 1}}, "tags", "Duplicate tags are not allowed"},
		{"unknown tag", domain.KindQuestion, domain.FieldValues{TagIDs: []uint64{1, 99}}, "tags", "Tag 99 does not exist"},
		{"tags on answer", domain.KindAnswer, domain.FieldValues{TagIDs: []uint64{1}}, "tags", "Answers do not have tags"},
		{"acceptance proposed", domain.KindAnswer, domain.FieldValues{IsAccepted: new(bool)}, "is_accepted", "Acceptance cannot be changed by editing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), tt.kind, tt.proposed)

			assert.ErrorIs(t, err, common.ErrValidationFailed)
			var verr *common.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.message, verr.Fields[tt.field])
		})
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	v := NewContentValidator(sanitizer.NewRichTextSanitizer(), new(mockTagRepo))

	_, err := v.Validate(context.Background(), domain.KindQuestion, domain.FieldValues{
		Title:  strp(""),
		Body:   strp("short"),
		TagIDs: []uint64{},
	})

	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)
}

func TestValidate_TitleLengthCountsRunes(t *testing.T) {
	v := NewContentValidator(sanitizer.NewRichTextSanitizer(), new(mockTagRepo))

	out, err := v.Validate(context.Background(), domain.KindQuestion, domain.FieldValues{
		Title: strp(strings.Repeat("가", 120)),
	})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("가", 120), *out.Title)
}

func TestValidate_TagLookupError(t *testing.T) {
	tags := new(mockTagRepo)
	tags.On("Exists", mock.Anything, uint64(1)).Return(false, errors.New("db down"))
	v := NewContentValidator(sanitizer.NewRichTextSanitizer(), tags)

	_, err := v.Validate(context.Background(), domain.KindQuestion, domain.FieldValues{TagIDs: []uint64{1}})

	assert.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrValidationFailed)
}
