// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var (
	mu          sync.RWMutex
	iceLevels   = map[string]bool{}
	sugarLevels = map[string]bool{}
)

// Register registers all custom validators with the Gin binding engine. The
// ice and sugar vocabularies come from configuration.
func Register(ice, sugar []string) {
	SetLevels(ice, sugar)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("ymd_date", validateDate)
		_ = v.RegisterValidation("ice_level", validateIceLevel)
		_ = v.RegisterValidation("sugar_level", validateSugarLevel)
	}
}

// SetLevels replaces the accepted ice and sugar vocabularies.
func SetLevels(ice, sugar []string) {
	mu.Lock()
	defer mu.Unlock()
	iceLevels = toSet(ice)
	sugarLevels = toSet(sugar)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// IsDate reports whether s is a real calendar date in YYYY-MM-DD form.
func IsDate(s string) bool {
	if !dateRegex.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func validateDate(fl validator.FieldLevel) bool {
	return IsDate(fl.Field().String())
}

// Empty values pass here; requiring both levels is a service rule with its
// own error code.
func validateIceLevel(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	mu.RLock()
	defer mu.RUnlock()
	return s == "" || iceLevels[s]
}

func validateSugarLevel(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	mu.RLock()
	defer mu.RUnlock()
	return s == "" || sugarLevels[s]
}
