package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestValidator_ReadOnlyRejectedFirst(t *testing.T) {
	v := New()

	entry := &model.ConfigEntry{
		ConfigKey:  "system.version",
		ValueType:  model.ValueTypeString,
		IsReadOnly: true,
	}

	// 只读检查先于值校验, 即使新值本身不合法也返回只读错误
	err := v.Validate(entry, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrReadOnlyViolation)
	assert.NotErrorIs(t, err, apperrors.ErrValidation)
}

func TestValidator_RequiredValue(t *testing.T) {
	v := New()

	// 默认必填, 空值拒绝
	err := v.ValidateValue(model.ValueTypeString, model.ValidationRules{}, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// 显式可选, 空值放行且跳过后续规则
	rules := model.ValidationRules{Optional: true, MinLength: intPtr(5)}
	assert.NoError(t, v.ValidateValue(model.ValueTypeString, rules, ""))
}

func TestValidator_NumberBounds(t *testing.T) {
	v := New()
	rules := model.ValidationRules{Min: floatPtr(0), Max: floatPtr(1)}

	tests := []struct {
		raw   string
		valid bool
	}{
		{"0", true},
		{"1", true},
		{"0.95", true},
		{"-0.01", false},
		{"1.01", false},
	}

	for _, tt := range tests {
		err := v.ValidateValue(model.ValueTypeNumber, rules, tt.raw)
		if tt.valid {
			assert.NoError(t, err, "value %s should pass", tt.raw)
		} else {
			assert.ErrorIs(t, err, apperrors.ErrValidation, "value %s should fail", tt.raw)
		}
	}
}

func TestValidator_NumberParse(t *testing.T) {
	v := New()

	err := v.ValidateValue(model.ValueTypeNumber, model.ValidationRules{}, "abc")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// 高精度小数不丢失
	assert.NoError(t, v.ValidateValue(model.ValueTypeNumber, model.ValidationRules{}, "0.000000001"))
}

func TestValidator_StringRules(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		rules model.ValidationRules
		raw   string
		valid bool
	}{
		{"长度下限通过", model.ValidationRules{MinLength: intPtr(3)}, "abc", true},
		{"长度下限不足", model.ValidationRules{MinLength: intPtr(3)}, "ab", false},
		{"长度上限超出", model.ValidationRules{MaxLength: intPtr(5)}, "abcdef", false},
		{"正则匹配", model.ValidationRules{Pattern: `^sk-[a-z0-9]+$`}, "sk-abc123", true},
		{"正则不匹配", model.ValidationRules{Pattern: `^sk-[a-z0-9]+$`}, "pk-abc123", false},
		{"选项命中", model.ValidationRules{Options: []string{"debug", "info", "warn"}}, "info", true},
		{"选项未命中", model.ValidationRules{Options: []string{"debug", "info", "warn"}}, "trace", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateValue(model.ValueTypeString, tt.rules, tt.raw)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
			}
		})
	}
}

func TestValidator_Boolean(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidateValue(model.ValueTypeBoolean, model.ValidationRules{}, "true"))
	assert.NoError(t, v.ValidateValue(model.ValueTypeBoolean, model.ValidationRules{}, "false"))

	// 不接受 1/0/yes 等宽松写法
	for _, raw := range []string{"1", "0", "yes", "True", "FALSE"} {
		err := v.ValidateValue(model.ValueTypeBoolean, model.ValidationRules{}, raw)
		assert.ErrorIs(t, err, apperrors.ErrValidation, "value %s should fail", raw)
	}
}

func TestValidator_JSON(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidateValue(model.ValueTypeJSON, model.ValidationRules{}, `{"a":1}`))
	assert.NoError(t, v.ValidateValue(model.ValueTypeJSON, model.ValidationRules{}, `["a","b"]`))
	assert.ErrorIs(t, v.ValidateValue(model.ValueTypeJSON, model.ValidationRules{}, `{"a":`), apperrors.ErrValidation)
}

func TestValidator_Enum(t *testing.T) {
	v := New()

	rules := model.ValidationRules{Options: []string{"pdf", "image", "email"}}
	assert.NoError(t, v.ValidateValue(model.ValueTypeEnum, rules, "pdf"))
	assert.ErrorIs(t, v.ValidateValue(model.ValueTypeEnum, rules, "word"), apperrors.ErrValidation)

	// 未声明可选值的枚举拒绝一切取值
	assert.ErrorIs(t, v.ValidateValue(model.ValueTypeEnum, model.ValidationRules{}, "pdf"), apperrors.ErrValidation)
}

func TestValidator_SecretUsesStringRules(t *testing.T) {
	v := New()

	rules := model.ValidationRules{MinLength: intPtr(8)}
	assert.NoError(t, v.ValidateValue(model.ValueTypeSecret, rules, "sk-abc123"))
	assert.ErrorIs(t, v.ValidateValue(model.ValueTypeSecret, rules, "short"), apperrors.ErrValidation)
}

func TestValidator_ViolationMessageNamesBound(t *testing.T) {
	v := New()

	rules := model.ValidationRules{Min: floatPtr(0), Max: floatPtr(1)}
	err := v.ValidateValue(model.ValueTypeNumber, rules, "1.01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1")
}
