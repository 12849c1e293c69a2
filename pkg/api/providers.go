package api

// ProviderResource contains the configuration record for a model backend.
type ProviderResource struct {
	ID          string         `mapstructure:"id" yaml:"id" json:"id"`
	Name        string         `mapstructure:"name" yaml:"name" json:"name"`
	Description string         `mapstructure:"description" yaml:"description" json:"description,omitempty"`
	Type        string         `mapstructure:"type" yaml:"type" json:"type"`
	Endpoint    *string        `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint,omitempty"`
	APIKey      *string        `mapstructure:"api_key" yaml:"api_key" json:"-"`
	IsActive    bool           `mapstructure:"is_active" yaml:"is_active" json:"is_active"`
	Options     map[string]any `mapstructure:"options" yaml:"options" json:"options,omitempty"`
}

// ProviderResourceList represents response for listing providers
type ProviderResourceList struct {
	TotalCount int                `json:"total_count"`
	Items      []ProviderResource `json:"items,omitempty"`
}

// ModelResource contains the configuration record for one model of a provider.
// Endpoint and APIKey, when set, take precedence over the provider-level values.
type ModelResource struct {
	ID         string         `mapstructure:"id" yaml:"id" json:"id"`
	Name       string         `mapstructure:"name" yaml:"name" json:"name"`
	ProviderID string         `mapstructure:"provider_id" yaml:"provider_id" json:"provider_id"`
	Endpoint   *string        `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint,omitempty"`
	APIKey     *string        `mapstructure:"api_key" yaml:"api_key" json:"-"`
	Parameters map[string]any `mapstructure:"parameters" yaml:"parameters" json:"parameters,omitempty"`
	IsActive   bool           `mapstructure:"is_active" yaml:"is_active" json:"is_active"`
}

// ModelResourceList represents response for listing models
type ModelResourceList struct {
	TotalCount int             `json:"total_count"`
	Items      []ModelResource `json:"items,omitempty"`
}
