package docker

import (
	"fmt"

	"github.com/google/uuid"
)

// Label keys used for Drey resources
const (
	LabelProject       = "drey.project"
	LabelInstanceName  = "drey.instance.name"
	LabelInstanceRunID = "drey.instance.run_id"
	LabelWorkspacePath = "drey.workspace.path"
	LabelComponent     = "drey.component"
	LabelRedisPort     = "drey.redis.port"
)

// BuildLabels creates the standard label set for all Drey resources.
// All parameters are required except component (which is resource-specific).
func BuildLabels(instanceName, runID, workspacePath, component string) map[string]string {
	labels := map[string]string{
		LabelProject:       "true",
		LabelInstanceName:  instanceName,
		LabelInstanceRunID: runID,
		LabelWorkspacePath: workspacePath,
	}

	if component != "" {
		labels[LabelComponent] = component
	}

	return labels
}

// GenerateRunID creates a new UUID for an instance run.
// Each invocation of `drey up` gets a unique run ID.
func GenerateRunID() string {
	return uuid.New().String()
}

// Resource naming conventions for Drey components

// NetworkName returns the Docker network name for an instance
func NetworkName(instanceName string) string {
	return fmt.Sprintf("drey-network-%s", instanceName)
}

// RedisContainerName returns the Redis container name for an instance
func RedisContainerName(instanceName string) string {
	return fmt.Sprintf("drey-redis-%s", instanceName)
}
