package validator

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	apperrors "github.com/laitim2001/ai-document-extraction-project-sub002/pkg/errors"
)

// Validator 配置值校验器
type Validator struct{}

// New 创建校验器
func New() *Validator {
	return &Validator{}
}

// Validate 校验配置项变更
// 顺序: 只读检查 → 必填检查 → 类型规则检查, 命中第一条违规即返回
func (v *Validator) Validate(entry *model.ConfigEntry, raw string) error {
	if entry.IsReadOnly {
		return apperrors.ErrReadOnlyViolation
	}
	return v.ValidateValue(entry.ValueType, entry.Validation, raw)
}

// ValidateValue 按值类型与规则校验原始值
func (v *Validator) ValidateValue(valueType model.ValueType, rules model.ValidationRules, raw string) error {
	if raw == "" {
		if rules.Optional {
			return nil
		}
		return apperrors.ErrValidation.WithMessage("配置值不能为空")
	}

	switch valueType {
	case model.ValueTypeString, model.ValueTypeSecret:
		return v.validateString(rules, raw)
	case model.ValueTypeNumber:
		return v.validateNumber(rules, raw)
	case model.ValueTypeBoolean:
		return v.validateBoolean(raw)
	case model.ValueTypeJSON:
		return v.validateJSON(raw)
	case model.ValueTypeEnum:
		return v.validateEnum(rules, raw)
	default:
		return apperrors.ErrValidation.WithMessagef("未知的值类型: %s", valueType)
	}
}

func (v *Validator) validateString(rules model.ValidationRules, raw string) error {
	length := utf8.RuneCountInString(raw)
	if rules.MinLength != nil && length < *rules.MinLength {
		return apperrors.ErrValidation.WithMessagef("值长度不能小于 %d", *rules.MinLength)
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		return apperrors.ErrValidation.WithMessagef("值长度不能超过 %d", *rules.MaxLength)
	}
	if rules.Pattern != "" {
		re, err := regexp.Compile(rules.Pattern)
		if err != nil {
			return apperrors.ErrValidation.WithMessagef("校验规则中的正则表达式无效: %s", rules.Pattern)
		}
		if !re.MatchString(raw) {
			return apperrors.ErrValidation.WithMessagef("值不匹配校验模式 %s", rules.Pattern)
		}
	}
	if len(rules.Options) > 0 {
		for _, opt := range rules.Options {
			if raw == opt {
				return nil
			}
		}
		return apperrors.ErrValidation.WithMessagef("值必须是以下选项之一: %s", strings.Join(rules.Options, ", "))
	}
	return nil
}

func (v *Validator) validateNumber(rules model.ValidationRules, raw string) error {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return apperrors.ErrValidation.WithMessage("值不是合法的数值")
	}
	if rules.Min != nil && value.LessThan(decimal.NewFromFloat(*rules.Min)) {
		return apperrors.ErrValidation.WithMessagef("数值不能小于 %s", formatBound(*rules.Min))
	}
	if rules.Max != nil && value.GreaterThan(decimal.NewFromFloat(*rules.Max)) {
		return apperrors.ErrValidation.WithMessagef("数值不能大于 %s", formatBound(*rules.Max))
	}
	return nil
}

func (v *Validator) validateBoolean(raw string) error {
	if raw != "true" && raw != "false" {
		return apperrors.ErrValidation.WithMessage("值必须是 true 或 false")
	}
	return nil
}

func (v *Validator) validateJSON(raw string) error {
	if !json.Valid([]byte(raw)) {
		return apperrors.ErrValidation.WithMessage("值不是合法的 JSON")
	}
	return nil
}

func (v *Validator) validateEnum(rules model.ValidationRules, raw string) error {
	if len(rules.Options) == 0 {
		return apperrors.ErrValidation.WithMessage("枚举配置未声明可选值")
	}
	for _, opt := range rules.Options {
		if raw == opt {
			return nil
		}
	}
	return apperrors.ErrValidation.WithMessagef("值必须是以下选项之一: %s", strings.Join(rules.Options, ", "))
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
