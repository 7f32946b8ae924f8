package resource

import "derivative-service/pkg/manager"

func init() {
	// 注册资源插件，未启用的后端由 Enabled 跳过
	manager.RegisterResourcePlugin(&MinioResourcePlugin{})
	manager.RegisterResourcePlugin(&AWSResourcePlugin{})
	manager.RegisterResourcePlugin(&MySqlResourcePlugin{})
	manager.RegisterResourcePlugin(&RedisResourcePlugin{})
	manager.RegisterResourcePlugin(&KafkaResourcePlugin{})
}
