package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/damoang/qna-revision/internal/common"
	"github.com/damoang/qna-revision/internal/domain"
	"github.com/damoang/qna-revision/internal/repository"
)

// Structural limits
const (
	MaxTitleLength    = 120
	MinBodyTextLength = 20
	MinTags           = 1
	MaxTags           = 5
)

// Sanitizer is the external markup sanitizer
type Sanitizer interface {
	Sanitize(raw string) string
	PlainText(markup string) string
}

// ContentValidator enforces the structural rules of an edit
type ContentValidator struct {
	sanitizer Sanitizer
	tags      repository.TagRepository
}

// NewContentValidator creates a ContentValidator
func NewContentValidator(sanitizer Sanitizer, tags repository.TagRepository) *ContentValidator {
	return &ContentValidator{sanitizer: sanitizer, tags: tags}
}

// Validate normalizes the proposed fields and checks every rule, collecting
// all violations. Failures are returned as *common.ValidationError; tag
// lookup failures are returned as-is.
func (v *ContentValidator) Validate(ctx context.Context, kind domain.ContentKind, proposed domain.FieldValues) (domain.FieldValues, error) {
	var out domain.FieldValues
	errs := map[string]string{}

	if proposed.Title != nil {
		title := strings.TrimSpace(*proposed.Title)
		switch {
		case kind != domain.KindQuestion:
			errs["title"] = "Answers do not have a title"
		case title == "":
			errs["title"] = "Title is required"
		case utf8.RuneCountInString(title) > MaxTitleLength:
			errs["title"] = fmt.Sprintf("Title must not exceed %d characters", MaxTitleLength)
		default:
			out.Title = &title
		}
	}

	if proposed.Body != nil {
		body := v.sanitizer.Sanitize(*proposed.Body)
		if utf8.RuneCountInString(v.sanitizer.PlainText(body)) < MinBodyTextLength {
			errs["body"] = fmt.Sprintf("Body must be at least %d characters", MinBodyTextLength)
		} else {
			out.Body = &body
		}
	}

	if proposed.TagIDs != nil {
		msg, err := v.validateTags(ctx, kind, proposed.TagIDs)
		if err != nil {
			return domain.FieldValues{}, err
		}
		if msg != "" {
			errs["tags"] = msg
		} else {
			out.TagIDs = append([]uint64(nil), proposed.TagIDs...)
		}
	}

	if proposed.IsAccepted != nil {
		errs["is_accepted"] = "Acceptance cannot be changed by editing"
	}

	if len(errs) > 0 {
		return domain.FieldValues{}, common.NewValidationError(errs)
	}
	return out, nil
}

func (v *ContentValidator) validateTags(ctx context.Context, kind domain.ContentKind, ids []uint64) (string, error) {
	if kind != domain.KindQuestion {
		return "Answers do not have tags", nil
	}
	if len(ids) < MinTags {
		return "At least one tag is required", nil
	}
	if len(ids) > MaxTags {
		return fmt.Sprintf("Maximum %d tags allowed", MaxTags), nil
	}

	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return "Duplicate tags are not allowed", nil
		}
		seen[id] = struct{}{}
	}

	for _, id := range ids {
		ok, err := v.tags.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("lookup tag %d: %w", id, err)
		}
		if !ok {
			return fmt.Sprintf("Tag %d does not exist", id), nil
		}
	}
	return "", nil
}
