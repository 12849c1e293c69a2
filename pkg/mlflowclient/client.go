// Package mlflowclient is a minimal client for the MLflow tracking REST
// API, covering experiment lookup/creation and metric logging.
package mlflowclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiPrefix = "/api/2.0/mlflow"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(trackingURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(trackingURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetExperimentByName returns the experiment with the given name or an
// APIError with RESOURCE_DOES_NOT_EXIST when there is none.
func (c *Client) GetExperimentByName(name string) (*GetExperimentResponse, error) {
	endpoint := fmt.Sprintf("%s%s/experiments/get-by-name?experiment_name=%s",
		c.baseURL, apiPrefix, url.QueryEscape(name))

	response := &GetExperimentResponse{}
	if err := c.doRequest(http.MethodGet, endpoint, nil, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) CreateExperiment(request *CreateExperimentRequest) (*CreateExperimentResponse, error) {
	response := &CreateExperimentResponse{}
	if err := c.doRequest(http.MethodPost, c.baseURL+apiPrefix+"/experiments/create", request, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) CreateRun(request *CreateRunRequest) (*CreateRunResponse, error) {
	response := &CreateRunResponse{}
	if err := c.doRequest(http.MethodPost, c.baseURL+apiPrefix+"/runs/create", request, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) LogBatch(request *LogBatchRequest) error {
	return c.doRequest(http.MethodPost, c.baseURL+apiPrefix+"/runs/log-batch", request, nil)
}

func (c *Client) UpdateRun(request *UpdateRunRequest) error {
	return c.doRequest(http.MethodPost, c.baseURL+apiPrefix+"/runs/update", request, nil)
}

func (c *Client) doRequest(method string, endpoint string, requestBody any, responseBody any) error {
	var reader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		apiError := &APIError{StatusCode: response.StatusCode, ResponseBody: string(raw)}
		mlflowError := &MLFlowError{}
		if json.Unmarshal(raw, mlflowError) == nil && mlflowError.ErrorCode != "" {
			apiError.MLFlowError = mlflowError
		}
		return apiError
	}

	if responseBody != nil && len(raw) > 0 {
		return json.Unmarshal(raw, responseBody)
	}
	return nil
}
