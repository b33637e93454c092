package types

// ModelEntry is one model x scale combination and whether its weights exist.
type ModelEntry struct {
	// Model variant.
	// example: no-denoise
	Model string `json:"model" example:"no-denoise"`
	// Scale factor.
	// example: 2
	Scale int `json:"scale" example:"2"`
	// Absolute path of the weight resource.
	// example: /var/lib/upscaled/weights/no-denoise_2x
	Path string `json:"path" example:"/var/lib/upscaled/weights/no-denoise_2x"`
	// Whether the weight resource is present.
	// example: true
	Available bool `json:"available" example:"true"`
}
