package observability

import (
	"os"

	"github.com/grafana/pyroscope-go"

	"derivative-service/pkg/config"
	"derivative-service/pkg/logger"
)

// StartProfiling 启用 pyroscope 持续剖析，未配置地址时直接返回 nil
func StartProfiling(appName string, cfg config.ProfilingConfig) *pyroscope.Profiler {
	if !cfg.Enabled || cfg.ServerAddress == "" {
		return nil
	}
	hostname, _ := os.Hostname()
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   cfg.ServerAddress,
		Tags:            map[string]string{"hostname": hostname},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		logger.Warnf("Pyroscope profiling not started server=%s error=%v", cfg.ServerAddress, err)
		return nil
	}
	logger.Infof("Pyroscope profiling started app=%s server=%s", appName, cfg.ServerAddress)
	return profiler
}
