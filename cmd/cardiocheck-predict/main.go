// Command cardiocheck-predict posts a patient record to a running
// CardioCheck server and prints the prediction.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"cardiocheck/inference"
)

type apiError struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("cardiocheck-predict", flag.ContinueOnError)
	server := fs.String("server", "http://localhost:8080", "CardioCheck base URL")
	recordPath := fs.String("record", "", "JSON file holding the patient record (- for stdin)")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	asJSON := fs.Bool("json", false, "print the raw JSON response")

	var record inference.PatientRecord
	fs.IntVar(&record.Age, "age", 0, "age in years")
	fs.StringVar(&record.Sex, "sex", "", "sex (Male, Female)")
	fs.StringVar(&record.CP, "cp", "", "chest pain type")
	fs.Float64Var(&record.Trestbps, "trestbps", 0, "resting blood pressure")
	fs.Float64Var(&record.Chol, "chol", 0, "serum cholesterol")
	fs.StringVar(&record.FBS, "fbs", "", "fasting blood sugar > 120 mg/dl (TRUE, FALSE)")
	fs.StringVar(&record.Restecg, "restecg", "", "resting ECG result")
	fs.Float64Var(&record.Thalch, "thalch", 0, "maximum heart rate achieved")
	fs.StringVar(&record.Exang, "exang", "", "exercise induced angina (TRUE, FALSE)")
	fs.Float64Var(&record.Oldpeak, "oldpeak", 0, "ST depression induced by exercise")
	fs.StringVar(&record.Slope, "slope", "", "slope of the peak exercise ST segment")
	fs.Float64Var(&record.CA, "ca", 0, "number of major vessels colored by fluoroscopy")
	fs.StringVar(&record.Thal, "thal", "", "thalassemia")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var body interface{}
	if *recordPath != "" {
		if fieldsSet(set) > 0 {
			return errors.New("-record cannot be combined with field flags")
		}
		raw, err := readRecord(*recordPath)
		if err != nil {
			return err
		}
		body = []byte(raw)
	} else {
		if missing := missingFields(set); len(missing) > 0 {
			return fmt.Errorf("-record or every field flag is required; missing: -%s", strings.Join(missing, ", -"))
		}
		body = record
	}

	client := resty.New().SetBaseURL(*server).SetTimeout(*timeout)
	result, err := predict(client, body)
	if err != nil {
		return err
	}
	if *asJSON {
		return json.NewEncoder(out).Encode(result)
	}
	_, err = fmt.Fprintf(out, "%s (%s)\n", result.Label, result.Probability)
	return err
}

func recordFields() []string {
	fields := append([]string{}, inference.NumericFields...)
	fields = append(fields, inference.CategoricalFields...)
	sort.Strings(fields)
	return fields
}

func fieldsSet(set map[string]bool) int {
	n := 0
	for _, name := range recordFields() {
		if set[name] {
			n++
		}
	}
	return n
}

func missingFields(set map[string]bool) []string {
	var missing []string
	for _, name := range recordFields() {
		if !set[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

func readRecord(path string) (json.RawMessage, error) {
	var payload []byte
	var err error
	if path == "-" {
		payload, err = io.ReadAll(os.Stdin)
	} else {
		payload, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("%s is not valid JSON", path)
	}
	return json.RawMessage(payload), nil
}

func predict(client *resty.Client, body interface{}) (inference.PredictionResult, error) {
	var result inference.PredictionResult
	var failure apiError
	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&result).
		SetError(&failure).
		Post("/api/predict")
	if err != nil {
		return result, fmt.Errorf("failed to connect to server: %w", err)
	}
	if resp.IsError() {
		if failure.Error != "" {
			return result, fmt.Errorf("server returned %d %s: %s", resp.StatusCode(), failure.Error, failure.Message)
		}
		return result, fmt.Errorf("server returned %d", resp.StatusCode())
	}
	return result, nil
}
