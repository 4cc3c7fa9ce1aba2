package calendar

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultMaxSpanDays bounds how many days a single event may cover.
const DefaultMaxSpanDays = 366

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

type eventInput struct {
	Date    string `json:"date" validate:"required,len=10,datetime=2006-01-02"`
	EndDate string `json:"endDate" validate:"omitempty,len=10,datetime=2006-01-02"`
	Title   string `json:"title" validate:"required,max=200"`
	Time    string `json:"time" validate:"omitempty,len=5,datetime=15:04"`
	Color   string `json:"color" validate:"required,oneof=red orange yellow green teal blue indigo purple pink"`
}

// ValidationError lists every problem found in a submitted event.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidEvent, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidEvent
}

// Normalize trims the title, drops the time of all-day events and collapses an
// end date equal to the start date.
func Normalize(e Event) Event {
	e.Title = strings.TrimSpace(e.Title)
	if e.IsAllDay {
		e.Time = ""
	}
	if e.EndDate == e.Date {
		e.EndDate = ""
	}
	return e
}

// Validate checks a normalised event. maxSpanDays <= 0 falls back to DefaultMaxSpanDays.
func Validate(e Event, maxSpanDays int) error {
	if maxSpanDays <= 0 {
		maxSpanDays = DefaultMaxSpanDays
	}

	var problems []string
	err := validate.Struct(eventInput{
		Date:    string(e.Date),
		EndDate: string(e.EndDate),
		Title:   e.Title,
		Time:    e.Time,
		Color:   string(e.Color),
	})
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fe := range fieldErrors {
			problems = append(problems, describe(fe))
		}
	} else if err != nil {
		return err
	}

	if !e.IsAllDay && e.Time == "" {
		problems = append(problems, "time is required unless the event is all day")
	}

	if len(problems) == 0 && e.EndDate != "" {
		if e.EndDate < e.Date {
			problems = append(problems, "end date cannot be before start date")
		} else if span, err := e.SpanDays(); err != nil {
			problems = append(problems, err.Error())
		} else if span > maxSpanDays {
			problems = append(problems, fmt.Sprintf("event cannot span more than %d days", maxSpanDays))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must match %s", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters long", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
