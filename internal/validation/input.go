package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength       = 3
	MaxUsernameLength       = 30
	MinJobTitleLength       = 3
	MaxJobTitleLength       = 200
	MinJobDescriptionLength = 10
	MaxJobDescriptionLength = 5000
	MaxCoverLetterLength    = 2000
	MaxReasonLength         = 1000
	MinBudget               = 0.0
	MaxBudget               = 100000000.0 // 100 миллионов
	MinEstimatedDuration    = 1
	MaxEstimatedDuration    = 365
	MaxWorkersPerJob        = 50
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	localRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !localRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateAmount проверяет денежную сумму.
func ValidateAmount(fieldName string, amount float64) error {
	if amount <= MinBudget {
		return fmt.Errorf("%s должна быть положительной", fieldName)
	}
	if amount > MaxBudget {
		return fmt.Errorf("%s не может превышать %.0f", fieldName, MaxBudget)
	}
	return nil
}

// ValidateEstimatedDuration проверяет срок выполнения в днях.
func ValidateEstimatedDuration(days int) error {
	if days < MinEstimatedDuration || days > MaxEstimatedDuration {
		return fmt.Errorf("срок выполнения должен быть от %d до %d дней", MinEstimatedDuration, MaxEstimatedDuration)
	}
	return nil
}

// ValidateReason проверяет текст причины (отказа, отзыва, спора).
func ValidateReason(fieldName, reason string) error {
	if err := ValidateNonEmpty(fieldName, reason); err != nil {
		return err
	}
	return ValidateLength(fieldName, reason, 0, MaxReasonLength)
}

// ValidateMaxWorkers проверяет количество мест исполнителей.
func ValidateMaxWorkers(n int) error {
	if n < 1 || n > MaxWorkersPerJob {
		return fmt.Errorf("количество исполнителей должно быть от 1 до %d", MaxWorkersPerJob)
	}
	return nil
}
