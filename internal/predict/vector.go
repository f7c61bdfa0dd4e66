package predict

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	// Report offending fields by their JSON name.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// FeatureVector is the fixed-order input the scaler and models were fitted
// with: humidity, pressure, wind_speed, clouds, month, day. Reordering the
// values silently corrupts predictions.
type FeatureVector struct {
	Humidity  float64 `json:"humidity" validate:"gte=0,lte=100"`
	Pressure  float64 `json:"pressure" validate:"gte=900,lte=1100"`
	WindSpeed float64 `json:"wind_speed" validate:"gte=0,lte=100"`
	Clouds    float64 `json:"clouds" validate:"gte=0,lte=100"`
	Month     int     `json:"month" validate:"gte=1,lte=12"`
	Day       int     `json:"day" validate:"gte=1,lte=31"`
}

// Values returns the features in model order.
func (v FeatureVector) Values() []float64 {
	return []float64{v.Humidity, v.Pressure, v.WindSpeed, v.Clouds, float64(v.Month), float64(v.Day)}
}

// Validate checks input ranges before any model is invoked; the scaler has
// undefined behaviour outside its fitted domain.
func (v FeatureVector) Validate() error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("%s=%v is out of range (%s=%s)", fe.Field(), fe.Value(), fe.Tag(), fe.Param()),
		}
	}
	return &ValidationError{Field: "input", Message: err.Error()}
}
