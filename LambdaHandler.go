package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/reaandrew/fxcopbridge/core"
	"github.com/reaandrew/fxcopbridge/fxcop"
	"github.com/reaandrew/fxcopbridge/repositories"
	"github.com/reaandrew/fxcopbridge/resources"
	"github.com/reaandrew/fxcopbridge/rules"
	"github.com/reaandrew/fxcopbridge/solution"
	log "github.com/sirupsen/logrus"
)

const lambdaWorkDir = "/tmp/fxcopbridge"

// LambdaRequest represents the expected JSON structure in the request body
type LambdaRequest struct {
	Project  string                   `json:"project"`
	Report   string                   `json:"report"`
	Projects []solution.ProjectConfig `json:"projects"`
	Encoding string                   `json:"encoding,omitempty"`
}

// LambdaResult is the body of a successful response.
type LambdaResult struct {
	Summary  fxcop.Summary  `json:"summary"`
	Findings []core.Finding `json:"findings"`
}

// fetchParameter is replaced in tests.
var fetchParameter = getParameter

// Handler is the Lambda function handler
func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var lambdaReq LambdaRequest
	if err := json.Unmarshal([]byte(request.Body), &lambdaReq); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return errorResponse(400, "Invalid JSON format."), nil
	}

	if lambdaReq.Project == "" || lambdaReq.Report == "" {
		errMsg := "The 'project' and 'report' fields are required in the JSON request."
		log.Println(errMsg)
		return errorResponse(400, errMsg), nil
	}

	result, err := ImportReport(ctx, lambdaReq)
	if err != nil {
		var parseErr *core.ParseError
		if errors.As(err, &parseErr) || errors.Is(err, core.ErrNotApplicable) || errors.Is(err, fxcop.ErrUnsupportedEncoding) {
			log.Printf("Rejected FxCop report: %v", err)
			return errorResponse(400, err.Error()), nil
		}
		log.Printf("Error importing FxCop report: %v", err)
		return errorResponse(500, err.Error()), nil
	}

	body, err := json.Marshal(result)
	if err != nil {
		return errorResponse(500, err.Error()), nil
	}
	return toAPIGatewayResponse(200, string(body)), nil
}

// ImportReport parses the report carried by the request against the
// projects it declares. Without declared projects the named project is
// assumed to own the whole file system.
func ImportReport(ctx context.Context, req LambdaRequest) (LambdaResult, error) {
	ruleRepository, err := lambdaRules(ctx)
	if err != nil {
		return LambdaResult{}, err
	}

	entries := req.Projects
	if len(entries) == 0 {
		entries = []solution.ProjectConfig{{Name: req.Project, Directory: "/"}}
	}
	sol, err := solution.FromConfig(entries, solution.DefaultTestPatterns)
	if err != nil {
		return LambdaResult{}, fmt.Errorf("%w: %v", core.ErrNotApplicable, err)
	}

	parser, err := fxcop.NewResultParser(sol, req.Project, ruleRepository, resources.NewCSharpBridge(sol),
		fxcop.WithEncoding(req.Encoding))
	if err != nil {
		return LambdaResult{}, err
	}

	repository, err := repositories.NewFileBasedFindingRepository(lambdaWorkDir)
	if err != nil {
		return LambdaResult{}, err
	}
	defer func() {
		if err := repository.Clear(); err != nil {
			log.Errorf("Error clearing repository: %v", err)
		}
	}()

	sink := repositories.NewBatchingSink(repository, 0)
	summary, err := parser.ParseReader("request", strings.NewReader(req.Report), sink)
	if err != nil {
		sink.Discard()
		return LambdaResult{}, err
	}
	if err := sink.Flush(); err != nil {
		return LambdaResult{}, err
	}

	result := LambdaResult{Summary: summary, Findings: []core.Finding{}}
	iterator := repository.NewIterator()
	for iterator.HasNext() {
		set, err := iterator.Next()
		if err != nil {
			return LambdaResult{}, err
		}
		result.Findings = append(result.Findings, set.Findings...)
	}
	return result, nil
}

// lambdaRules layers the rule set stored in the SSM parameter named by
// RULES_SSM_PARAMETER over the built-in rules.
func lambdaRules(ctx context.Context) (*rules.Repository, error) {
	repository, err := rules.Default()
	if err != nil {
		return nil, err
	}

	paramName := os.Getenv("RULES_SSM_PARAMETER")
	if paramName == "" {
		return repository, nil
	}
	value, err := fetchParameter(ctx, paramName)
	if err != nil {
		return nil, err
	}
	set, err := rules.ParseYAML([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("invalid rules in parameter '%s': %w", paramName, err)
	}
	if err := repository.Merge(set); err != nil {
		return nil, fmt.Errorf("invalid rules in parameter '%s': %w", paramName, err)
	}
	log.Infof("Loaded rule overrides from %s", paramName)
	return repository, nil
}

// getParameter retrieves a decrypted value from SSM Parameter Store
func getParameter(ctx context.Context, paramName string) (string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	svc := ssm.NewFromConfig(cfg)
	result, err := svc.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to retrieve parameter '%s': %w", paramName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter '%s' has no value", paramName)
	}
	return *result.Parameter.Value, nil
}

func errorResponse(statusCode int, message string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(map[string]string{"error": message})
	return toAPIGatewayResponse(statusCode, string(body))
}

// toAPIGatewayResponse wraps a JSON body in an API Gateway response
func toAPIGatewayResponse(statusCode int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode:      statusCode,
		Headers:         map[string]string{"Content-Type": "application/json"},
		Body:            body,
		IsBase64Encoded: false,
	}
}
