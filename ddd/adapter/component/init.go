package component

import "derivative-service/pkg/manager"

func init() {
	// 注册顺序即启动顺序，停止时逆序
	manager.RegisterComponentPlugin(&GRPCHealthServerPlugin{})
	manager.RegisterComponentPlugin(&ObjectFinalizedConsumerPlugin{})
	manager.RegisterComponentPlugin(&ServiceRegistrationPlugin{})
}
