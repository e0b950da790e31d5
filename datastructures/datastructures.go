package datastructures

// ModelInfo describes the classifier artifact. It is read from the metadata
// file that ships next to the model.
type ModelInfo struct {
	InputShape  []*int64           `json:"input_shape" yaml:"input_shape"`
	ClassNames  []string           `json:"class_names" yaml:"class_names"`
	TestMetrics map[string]float64 `json:"test_metrics" yaml:"test_metrics"`
	InputNode   string             `json:"input_node,omitempty" yaml:"input_node,omitempty"`
	OutputNode  string             `json:"output_node,omitempty" yaml:"output_node,omitempty"`
	Created     string             `json:"created,omitempty" yaml:"created,omitempty"`
	BasedOn     string             `json:"based_on,omitempty" yaml:"based_on,omitempty"`
}

type PredictMeResult struct {
	ClassName   string  `json:"class_name"`
	Confidence  float64 `json:"confidence"`
	ImageUrl    string  `json:"image_url"`
	Chart       *string `json:"chart"`
	Timestamp   string  `json:"timestamp"`
	ModelLoaded bool    `json:"model_loaded"`
}

type ModelInfoResult struct {
	InputShape  []*int64           `json:"input_shape"`
	ClassNames  []string           `json:"class_names"`
	TestMetrics map[string]float64 `json:"test_metrics"`
	ModelLoaded bool               `json:"model_loaded"`
}

type HealthResult struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Timestamp   string `json:"timestamp"`
}

type DebugResult struct {
	ModelLoaded        bool    `json:"model_loaded"`
	ModelExists        bool    `json:"model_exists"`
	ModelInfoExists    bool    `json:"model_info_exists"`
	UploadFolderExists bool    `json:"upload_folder_exists"`
	UploadFolder       string  `json:"upload_folder"`
	InputShape         *string `json:"input_shape,omitempty"`
	OutputShape        *string `json:"output_shape,omitempty"`
}

// Statistics are fixed numbers shown on the statistics page. They are
// configured, not computed.
type Statistics struct {
	TotalScans     int     `json:"total_scans"`
	PneumoniaCases int     `json:"pneumonia_cases"`
	NormalCases    int     `json:"normal_cases"`
	Accuracy       float64 `json:"accuracy"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	ModelLoaded    bool    `json:"model_loaded"`
}

type ErrorResult struct {
	Error string `json:"error"`
}
