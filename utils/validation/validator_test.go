package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type studentForm struct {
	FullName    string `json:"full_name" validate:"required,min=2"`
	Phone       string `json:"phone" validate:"required,phone"`
	ParentPhone string `json:"parent_phone" validate:"required,phone"`
	BirthDate   string `json:"birth_date" validate:"required,yyyymmdd"`
	LessonTime  string `json:"lesson_time" validate:"omitempty,hhmm"`
	Password    string `json:"password" validate:"omitempty,password"`
}

func TestValidateStruct_CustomTags(t *testing.T) {
	v := NewValidator()

	valid := studentForm{
		FullName:    "Aziz Karimov",
		Phone:       "+998901234567",
		ParentPhone: "+998901234568",
		BirthDate:   "2010-05-17",
		LessonTime:  "18:30",
		Password:    "secret123",
	}
	require.NoError(t, v.ValidateStruct(valid))

	invalid := valid
	invalid.Phone = "998901234567"
	invalid.BirthDate = "17.05.2010"
	invalid.LessonTime = "24:10"
	invalid.Password = "onlyletters"

	err := v.ValidateStruct(invalid)
	require.Error(t, err)

	fields := FormatValidationErrors(err)
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "birth_date")
	assert.Contains(t, fields, "lesson_time")
	assert.Contains(t, fields, "password")
	assert.NotContains(t, fields, "parent_phone")
}

func TestValidatePassword(t *testing.T) {
	ok, errs := ValidatePassword("abc12345")
	assert.True(t, ok)
	assert.Empty(t, errs)

	ok, errs = ValidatePassword("short1")
	assert.False(t, ok)
	assert.Len(t, errs, 1)

	ok, errs = ValidatePassword("12345678")
	assert.False(t, ok)
	assert.Contains(t, errs, "Password must contain at least one letter")
}

func TestValidateLogin(t *testing.T) {
	ok, _ := ValidateLogin("center.admin_1")
	assert.True(t, ok)

	ok, msg := ValidateLogin("ab")
	assert.False(t, ok)
	assert.NotEmpty(t, msg)

	ok, _ = ValidateLogin("bad login")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, 29, d.Day())

	_, err = ParseDate("2023-02-29")
	assert.Error(t, err)
}
