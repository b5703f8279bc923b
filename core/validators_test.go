package core

import (
	"net/mail"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmailList(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []mail.Address
		wantErr bool
	}{
		{name: "single", in: "hod@example.com", want: []mail.Address{{Address: "hod@example.com"}}},
		{
			name: "many with blanks",
			in:   " a@example.com, ,Dean <dean@example.com>,",
			want: []mail.Address{{Address: "a@example.com"}, {Name: "Dean", Address: "dean@example.com"}},
		},
		{name: "empty", in: " , ", wantErr: true},
		{name: "invalid", in: "a@example.com, not-an-email", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEmailList(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitValidators(t *testing.T) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	InitValidators(validate, translator)

	type form struct {
		Code       string `json:"code" validate:"required,alphanum_"`
		Recipients string `json:"recipients" validate:"emaillist"`
	}

	err := validate.Struct(form{Code: "CS101", Recipients: "a@example.com,b@example.com"})
	assert.NoError(t, err)

	err = validate.Struct(form{Code: "CS-101", Recipients: "nope"})
	require.IsType(t, validator.ValidationErrors{}, err)
	msgs := make(map[string]string)
	for _, fe := range err.(validator.ValidationErrors) {
		msgs[fe.Field()] = fe.Translate(translator)
	}
	assert.Equal(t, map[string]string{
		"code":       alphaNumUnderText,
		"recipients": emailListText,
	}, msgs)

	err = validate.Struct(form{Recipients: "a@example.com"})
	require.IsType(t, validator.ValidationErrors{}, err)
	assert.Equal(t, requiredText, err.(validator.ValidationErrors)[0].Translate(translator))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(nil, FieldError{Field: "code", Error: "taken"}, FieldError{Field: "name", Error: "required"})
	assert.Equal(t, "code: taken; name: required", err.Error())
	assert.Equal(t, errNoEmailAddress.Error(), NewValidationError(errNoEmailAddress).Error())
}

func TestIsShutdown(t *testing.T) {
	assert.True(t, IsShutdown(NewShutdownError("integrity issue")))
	assert.False(t, IsShutdown(errNoEmailAddress))
}
