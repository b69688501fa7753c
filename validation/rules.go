// Package validation holds the rules a proposed actor or movie must satisfy
// before it is written.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/camden-git/moviesysbackend/models"
	"github.com/go-playground/validator/v10"
)

// Rule names one link of the validation chain.
type Rule string

const (
	RuleRequired  Rule = "required"
	RuleNonEmpty  Rule = "non_empty"
	RuleNotFuture Rule = "not_future"
)

// Error is a failed rule with per-field detail keyed by JSON field name.
type Error struct {
	Rule    Rule
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// ActorInput is the body of an actor create request.
type ActorInput struct {
	FirstName   *string      `json:"firstName" validate:"required,min=1"`
	LastName    *string      `json:"lastName" validate:"required,min=1"`
	DateOfBirth *models.Date `json:"dateOfBirth" validate:"required,notfuture"`
}

// MovieInput is the body of a movie create request.
type MovieInput struct {
	Title        *string      `json:"title" validate:"required,min=1"`
	CreationDate *models.Date `json:"creationDate" validate:"required,notfuture"`
	ActorID      *uint        `json:"actorId" validate:"required,gt=0"`
}

// ActorLookup is the read-only view of the actor collection the referential
// check needs.
type ActorLookup interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// NotFutureDate reports whether date is not a later calendar day than now.
// Today passes.
func NotFutureDate(date models.Date, now time.Time) bool {
	return !date.After(models.NewDate(now))
}

// ActorExists reports whether an actor with actorID currently exists.
func ActorExists(ctx context.Context, actors ActorLookup, actorID uint) (bool, error) {
	if actorID == 0 {
		return false, nil
	}
	ok, err := actors.Exists(ctx, actorID)
	if err != nil {
		return false, fmt.Errorf("failed to check actor %d: %w", actorID, err)
	}
	return ok, nil
}

// Validator runs the struct-tag rules with a fixed clock.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New builds a Validator. A nil clock means time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := &Validator{validate: validator.New(), now: now}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(models.Date); ok {
			return d.Time
		}
		return nil
	}, models.Date{})
	// validator only fails on registration errors, the tag name is fixed
	_ = v.validate.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return NotFutureDate(models.NewDate(t), v.now())
	})

	return v
}

// Now returns the validator's clock reading.
func (v *Validator) Now() time.Time {
	return v.now()
}

// ValidateActorCreate runs the required-field rule then date validity.
func (v *Validator) ValidateActorCreate(in ActorInput) error {
	return v.check(in, "firstName, lastName and dateOfBirth are required", "dateOfBirth cannot be in the future")
}

// ValidateMovieCreate runs required fields then date validity.
func (v *Validator) ValidateMovieCreate(in MovieInput) error {
	return v.check(in, "title, creationDate and actorId are required", "creationDate cannot be in the future")
}

// ValidateActorPatch checks supplied fields only.
func (v *Validator) ValidateActorPatch(p models.ActorPatch) error {
	return v.check(p, "", "dateOfBirth cannot be in the future")
}

// ValidateMoviePatch checks supplied fields only.
func (v *Validator) ValidateMoviePatch(p models.MoviePatch) error {
	return v.check(p, "", "creationDate cannot be in the future")
}

// check reports the first failing rule in chain order: required, non-empty,
// not-future.
func (v *Validator) check(input interface{}, requiredMsg, futureMsg string) error {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	// actorId 0 is not a reference, so gt=0 reports as missing
	if missing := fieldsWithTag(verrs, "required", "gt"); len(missing) > 0 {
		return &Error{Rule: RuleRequired, Message: requiredMsg, Fields: missing}
	}
	if empty := fieldsWithTag(verrs, "min"); len(empty) > 0 {
		names := sortedKeys(empty)
		return &Error{
			Rule:    RuleNonEmpty,
			Message: strings.Join(names, ", ") + " cannot be empty",
			Fields:  empty,
		}
	}
	if future := fieldsWithTag(verrs, "notfuture"); len(future) > 0 {
		return &Error{Rule: RuleNotFuture, Message: futureMsg, Fields: future}
	}
	return err
}

func fieldsWithTag(verrs validator.ValidationErrors, tags ...string) map[string]string {
	fields := map[string]string{}
	for _, fe := range verrs {
		if !hasTag(tags, fe.Tag()) {
			continue
		}
		switch fe.Tag() {
		case "required", "gt":
			fields[fe.Field()] = "is required"
		case "min":
			fields[fe.Field()] = "cannot be empty"
		case "notfuture":
			fields[fe.Field()] = "cannot be in the future"
		}
	}
	return fields
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
