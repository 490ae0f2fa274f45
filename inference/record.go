package inference

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Categorical and numeric field names as they appear in feature names.
var (
	CategoricalFields = []string{"sex", "cp", "fbs", "restecg", "exang", "slope", "thal"}
	NumericFields     = []string{"age", "trestbps", "chol", "thalch", "oldpeak", "ca"}
)

const (
	LabelHighRisk = "High Risk"
	LabelLowRisk  = "Low Risk"
)

// PatientRecord is one patient's clinical attributes.
type PatientRecord struct {
	Age      int     `json:"age" validate:"gte=1,lte=120"`
	Sex      string  `json:"sex" validate:"required"`
	CP       string  `json:"cp" validate:"required"`
	Trestbps float64 `json:"trestbps" validate:"gte=0"`
	Chol     float64 `json:"chol" validate:"gte=0"`
	FBS      string  `json:"fbs" validate:"required"`
	Restecg  string  `json:"restecg" validate:"required"`
	Thalch   float64 `json:"thalch" validate:"gte=0"`
	Exang    string  `json:"exang" validate:"required"`
	Oldpeak  float64 `json:"oldpeak"`
	Slope    string  `json:"slope" validate:"required"`
	CA       float64 `json:"ca" validate:"gte=0,lte=4"`
	Thal     string  `json:"thal" validate:"required"`
}

// PredictionResult is the label and the class-1 probability as a percentage.
type PredictionResult struct {
	Label       string `json:"label"`
	Probability string `json:"probability"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the domain constraints of every field.
func (r PatientRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	numeric := r.Numeric()
	for _, name := range NumericFields {
		if value := numeric[name]; math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%s must be a finite number", name)
		}
	}
	categorical := r.Categorical()
	for _, name := range CategoricalFields {
		if strings.TrimSpace(categorical[name]) == "" {
			return fmt.Errorf("%s must not be blank", name)
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func (r PatientRecord) Numeric() map[string]float64 {
	return map[string]float64{
		"age":      float64(r.Age),
		"trestbps": r.Trestbps,
		"chol":     r.Chol,
		"thalch":   r.Thalch,
		"oldpeak":  r.Oldpeak,
		"ca":       r.CA,
	}
}

func (r PatientRecord) Categorical() map[string]string {
	return map[string]string{
		"sex":     r.Sex,
		"cp":      r.CP,
		"fbs":     r.FBS,
		"restecg": r.Restecg,
		"exang":   r.Exang,
		"slope":   r.Slope,
		"thal":    r.Thal,
	}
}

// NewPredictionResult maps a predicted class and its class-1 probability.
func NewPredictionResult(label int, p1 float64) (PredictionResult, error) {
	if math.IsNaN(p1) || p1 < 0 || p1 > 1 {
		return PredictionResult{}, fmt.Errorf("class 1 probability %v out of range", p1)
	}
	var name string
	switch label {
	case 1:
		name = LabelHighRisk
	case 0:
		name = LabelLowRisk
	default:
		return PredictionResult{}, fmt.Errorf("unexpected class %d", label)
	}
	return PredictionResult{Label: name, Probability: fmt.Sprintf("%.2f%%", p1*100)}, nil
}
