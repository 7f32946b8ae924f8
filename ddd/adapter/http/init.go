package http

import "derivative-service/pkg/manager"

func init() {
	manager.RegisterControllerPlugin(&DerivativeControllerPlugin{})
}
