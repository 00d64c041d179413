package events

import (
	"encoding/json"
	"fmt"
)

// SetComparisonStartedData sets the Data field with ComparisonStartedData in a type-safe way.
func (e *Event) SetComparisonStartedData(data ComparisonStartedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert ComparisonStartedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetComparisonStartedData retrieves ComparisonStartedData from the Data field.
func (e *Event) GetComparisonStartedData() (*ComparisonStartedData, error) {
	var data ComparisonStartedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ComparisonStartedData: %w", err)
	}
	return &data, nil
}

// SetChunkCompletedData sets the Data field with ChunkCompletedData in a type-safe way.
func (e *Event) SetChunkCompletedData(data ChunkCompletedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert ChunkCompletedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetChunkCompletedData retrieves ChunkCompletedData from the Data field.
func (e *Event) GetChunkCompletedData() (*ChunkCompletedData, error) {
	var data ChunkCompletedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ChunkCompletedData: %w", err)
	}
	return &data, nil
}

// SetChunkFailedData sets the Data field with ChunkFailedData in a type-safe way.
func (e *Event) SetChunkFailedData(data ChunkFailedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert ChunkFailedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetChunkFailedData retrieves ChunkFailedData from the Data field.
func (e *Event) GetChunkFailedData() (*ChunkFailedData, error) {
	var data ChunkFailedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ChunkFailedData: %w", err)
	}
	return &data, nil
}

// SetRetryScheduledData sets the Data field with RetryScheduledData in a type-safe way.
func (e *Event) SetRetryScheduledData(data RetryScheduledData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert RetryScheduledData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetRetryScheduledData retrieves RetryScheduledData from the Data field.
func (e *Event) GetRetryScheduledData() (*RetryScheduledData, error) {
	var data RetryScheduledData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse RetryScheduledData: %w", err)
	}
	return &data, nil
}

// SetComparisonCompletedData sets the Data field with ComparisonCompletedData in a type-safe way.
func (e *Event) SetComparisonCompletedData(data ComparisonCompletedData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert ComparisonCompletedData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetComparisonCompletedData retrieves ComparisonCompletedData from the Data field.
func (e *Event) GetComparisonCompletedData() (*ComparisonCompletedData, error) {
	var data ComparisonCompletedData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse ComparisonCompletedData: %w", err)
	}
	return &data, nil
}

// structToMap converts a struct to map[string]interface{} using JSON marshaling.
func structToMap(data interface{}) (map[string]interface{}, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// mapToStruct converts a map[string]interface{} to a struct using JSON unmarshaling.
func mapToStruct(dataMap map[string]interface{}, target interface{}) error {
	bytes, err := json.Marshal(dataMap)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, target)
}
