package metrics

import "go.uber.org/fx"

// Module provides the application metrics registry.
var Module = fx.Provide(New)
