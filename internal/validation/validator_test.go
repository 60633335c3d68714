package validation_test

import (
	"testing"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/crmforge/crmforge/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactEntity() *domain.Entity {
	return &domain.Entity{
		Fields: []domain.FieldDefinition{
			{Name: "name", Label: "Name", Type: domain.FieldText, Required: true},
			{Name: "email", Label: "Email", Type: domain.FieldEmail},
			{Name: "phone", Label: "Phone", Type: domain.FieldPhone},
			{Name: "website", Label: "Website", Type: domain.FieldURL},
			{Name: "amount", Label: "Amount", Type: domain.FieldCurrency},
			{Name: "status", Label: "Status", Type: domain.FieldSelect, Options: []string{"new", "active", "churned"}},
			{Name: "interests", Label: "Interests", Type: domain.FieldMultiselect, Options: []string{"golf", "sailing"}},
			{Name: "subscribed", Label: "Subscribed", Type: domain.FieldCheckbox},
			{Name: "birthday", Label: "Birthday", Type: domain.FieldDate},
		},
	}
}

func fieldErrors(t *testing.T, err error) []domain.FieldError {
	t.Helper()
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func fieldNames(errs []domain.FieldError) []string {
	names := make([]string, len(errs))
	for i, e := range errs {
		names[i] = e.Field
	}
	return names
}

func TestValidate_Passes(t *testing.T) {
	v := validation.New()

	data := domain.Payload{
		"name":       domain.String("Ada Lovelace"),
		"email":      domain.String("ada@example.com"),
		"phone":      domain.String("+1 (555) 123-4567"),
		"website":    domain.String("https://example.com"),
		"amount":     domain.Number(1250.50),
		"status":     domain.String("active"),
		"interests":  domain.Array(domain.String("golf")),
		"subscribed": domain.Boolean(true),
		"birthday":   domain.String("1990-12-10"),
	}

	out, err := v.Validate(contactEntity(), data)
	require.NoError(t, err)

	// Dates are normalized to time values.
	birthday := out.Get("birthday")
	assert.Equal(t, domain.KindTime, birthday.Kind)
	assert.Equal(t, time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC), birthday.Time)
}

func TestValidate_MissingRequired(t *testing.T) {
	v := validation.New()

	_, err := v.Validate(contactEntity(), domain.Payload{
		"email": domain.String("ada@example.com"),
	})

	errs := fieldErrors(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)
	assert.Contains(t, errs[0].Message, "required")
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	v := validation.New()

	_, err := v.Validate(contactEntity(), domain.Payload{
		"email":   domain.String("not-an-email"),
		"phone":   domain.String("12345"),
		"website": domain.String("ftp://example.com"),
		"status":  domain.String("vip"),
	})

	errs := fieldErrors(t, err)
	assert.ElementsMatch(t, []string{"name", "email", "phone", "website", "status"}, fieldNames(errs))
}

func TestValidate_SelectOutsideOptions(t *testing.T) {
	v := validation.New()

	_, err := v.Validate(contactEntity(), domain.Payload{
		"name":   domain.String("Ada"),
		"status": domain.String("vip"),
	})

	errs := fieldErrors(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "status", errs[0].Field)
	assert.Contains(t, errs[0].Message, "new, active, churned")
}

func TestValidate_TypeMismatches(t *testing.T) {
	v := validation.New()
	entity := contactEntity()

	cases := []struct {
		name  string
		data  domain.Payload
		field string
	}{
		{"number as string", domain.Payload{"name": domain.String("x"), "amount": domain.String("12")}, "amount"},
		{"checkbox as string", domain.Payload{"name": domain.String("x"), "subscribed": domain.String("yes")}, "subscribed"},
		{"multiselect scalar", domain.Payload{"name": domain.String("x"), "interests": domain.String("golf")}, "interests"},
		{"multiselect bad item", domain.Payload{"name": domain.String("x"), "interests": domain.Array(domain.String("tennis"))}, "interests"},
		{"bad date", domain.Payload{"name": domain.String("x"), "birthday": domain.String("10/12/1990")}, "birthday"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Validate(entity, tc.data)
			errs := fieldErrors(t, err)
			require.Len(t, errs, 1)
			assert.Equal(t, tc.field, errs[0].Field)
		})
	}
}

func TestValidate_AppliesDefaults(t *testing.T) {
	v := validation.New()
	def := domain.String("new")
	entity := &domain.Entity{
		Fields: []domain.FieldDefinition{
			{Name: "name", Label: "Name", Type: domain.FieldText, Required: true},
			{Name: "status", Label: "Status", Type: domain.FieldSelect, Options: []string{"new", "active"}, Default: &def},
		},
	}

	out, err := v.Validate(entity, domain.Payload{"name": domain.String("Ada")})
	require.NoError(t, err)
	assert.True(t, out.Get("status").Equal(domain.String("new")))
}

func TestValidate_IgnoresUndeclaredKeys(t *testing.T) {
	v := validation.New()

	out, err := v.Validate(contactEntity(), domain.Payload{
		"name":   domain.String("Ada"),
		"legacy": domain.Number(7),
	})
	require.NoError(t, err)
	assert.True(t, out.Get("legacy").Equal(domain.Number(7)))
}

func TestValidate_NumberConstraints(t *testing.T) {
	v := validation.New()
	min, max := 0.0, 100.0
	entity := &domain.Entity{
		Fields: []domain.FieldDefinition{
			{Name: "score", Label: "Score", Type: domain.FieldNumber, Constraints: &domain.FieldConstraints{Min: &min, Max: &max}},
		},
	}

	_, err := v.Validate(entity, domain.Payload{"score": domain.Number(250)})
	errs := fieldErrors(t, err)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "at most 100")

	_, err = v.Validate(entity, domain.Payload{"score": domain.Number(50)})
	assert.NoError(t, err)
}

func TestCheckSchema(t *testing.T) {
	v := validation.New()

	t.Run("valid", func(t *testing.T) {
		err := v.CheckSchema([]domain.FieldDefinition{
			{Name: "full_name", Type: domain.FieldText},
			{Name: "stage", Type: domain.FieldSelect, Options: []string{"open", "won"}},
		})
		assert.NoError(t, err)
	})

	t.Run("duplicate names", func(t *testing.T) {
		err := v.CheckSchema([]domain.FieldDefinition{
			{Name: "stage", Type: domain.FieldText},
			{Name: "stage", Type: domain.FieldText},
		})
		assert.Error(t, err)
	})

	t.Run("select without options", func(t *testing.T) {
		err := v.CheckSchema([]domain.FieldDefinition{
			{Name: "stage", Type: domain.FieldSelect},
		})
		assert.Error(t, err)
	})

	t.Run("bad machine name", func(t *testing.T) {
		err := v.CheckSchema([]domain.FieldDefinition{
			{Name: "Full Name", Type: domain.FieldText},
		})
		assert.Error(t, err)
	})

	t.Run("default violates own type", func(t *testing.T) {
		def := domain.String("closed")
		err := v.CheckSchema([]domain.FieldDefinition{
			{Name: "stage", Type: domain.FieldSelect, Options: []string{"open"}, Default: &def},
		})
		assert.Error(t, err)
	})
}
