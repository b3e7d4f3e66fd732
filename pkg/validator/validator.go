// Package validator wraps go-playground/validator with json field names and translated messages
// Package validator 封装 go-playground/validator，字段名取 json 标签，错误消息按语言翻译
package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/haierkeys/course-sync/pkg/code"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	validatorV10 "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// ValidError 单个字段的校验错误
type ValidError struct {
	Key     string
	Message string
}

func (v *ValidError) Error() string {
	return v.Key + ": " + v.Message
}

// ValidErrors 校验错误列表
type ValidErrors []*ValidError

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ", ")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

// Validator 带翻译器的校验器，可并发使用
type Validator struct {
	validate *validatorV10.Validate
	uni      *ut.UniversalTranslator
}

// New 创建校验器并注册中英文翻译
func New() (*Validator, error) {
	validate := validatorV10.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	uni := ut.New(en.New(), en.New(), zh.New())
	zhTran, _ := uni.GetTranslator("zh")
	enTran, _ := uni.GetTranslator("en")

	if err := zh_translations.RegisterDefaultTranslations(validate, zhTran); err != nil {
		return nil, err
	}
	if err := en_translations.RegisterDefaultTranslations(validate, enTran); err != nil {
		return nil, err
	}
	return &Validator{validate: validate, uni: uni}, nil
}

func (v *Validator) translator() ut.Translator {
	locale := "en"
	if code.GetGlobalDefaultLang() == "zh_cn" {
		locale = "zh"
	}
	trans, _ := v.uni.GetTranslator(locale)
	return trans
}

// Struct 校验结构体，返回 nil 或 ValidErrors
// Key 为字段的完整命名空间，如 courses[0].files[2].content_type
func (v *Validator) Struct(obj any) error {
	err := v.validate.Struct(obj)
	if err == nil {
		return nil
	}

	var validationErrors validatorV10.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	trans := v.translator()
	errs := make(ValidErrors, 0, len(validationErrors))
	for _, fe := range validationErrors {
		key := fe.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		errs = append(errs, &ValidError{Key: key, Message: fe.Translate(trans)})
	}
	return errs
}
