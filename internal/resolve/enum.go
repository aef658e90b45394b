package resolve

import (
	"errors"
	"fmt"

	"elnino/internal/diag"
	"elnino/internal/records"
	"elnino/internal/types"
)

// EnumFailure explains why an enum was dropped. Enums are never retried.
type EnumFailure struct {
	Code   diag.Code // ResMalformedEnum or ResUnresolvableEnum
	Detail string
}

func (f *EnumFailure) String() string {
	return f.Code.ID() + ": " + f.Detail
}

// BuildEnum assembles an enumeration. The width comes from the underlying
// type, which is normally a primitive code. A non-nil failure means the enum
// is dropped; err is reserved for fatal errors.
func (r *Resolver) BuildEnum(e *records.Enum) (*types.Type, *EnumFailure, error) {
	width, fail, err := r.underlyingWidth(e)
	if err != nil || fail != nil {
		return nil, fail, err
	}
	enumerators := make([]types.Enumerator, 0, len(e.Fields))
	for i, f := range e.Fields {
		en, ok := f.(*records.Enumerate)
		if !ok || en.Name == "" {
			return nil, &EnumFailure{
				Code:   diag.ResMalformedEnum,
				Detail: fmt.Sprintf("member %d has no name", i),
			}, nil
		}
		enumerators = append(enumerators, types.Enumerator{Name: en.Name, Value: en.Value})
	}
	return types.MakeEnum(width, enumerators), nil, nil
}

func (r *Resolver) underlyingWidth(e *records.Enum) (int, *EnumFailure, error) {
	if e.Underlying == nil {
		return 0, &EnumFailure{Code: diag.ResUnresolvableEnum, Detail: "no underlying type"}, nil
	}
	res, err := r.Resolve(e.Underlying)
	if err != nil {
		var re *Error
		if errors.As(err, &re) && re.Subject == "" {
			re.Subject = e.Name
		}
		return 0, nil, err
	}
	if res.Firm == nil {
		return 0, &EnumFailure{
			Code:   diag.ResUnresolvableEnum,
			Detail: fmt.Sprintf("underlying type %s is not resolvable", res.Name),
		}, nil
	}
	return res.Firm.Size(), nil, nil
}
