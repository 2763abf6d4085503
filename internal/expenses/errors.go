package expenses

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStoreFailure помечает ошибки хранилища; клиенту они отдаются как 500.
var ErrStoreFailure = errors.New("store failure")

// ValidationError означает, что входные данные не прошли проверку до обращения к хранилищу.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid expense: missing or invalid " + strings.Join(e.Fields, ", ")
}

// CategoryCreationError означает, что не удалось создать категорию при приеме записи.
type CategoryCreationError struct {
	Name string
	Err  error
}

func (e *CategoryCreationError) Error() string {
	return fmt.Sprintf("create category %q: %v", e.Name, e.Err)
}

func (e *CategoryCreationError) Unwrap() []error {
	return []error{ErrStoreFailure, e.Err}
}
