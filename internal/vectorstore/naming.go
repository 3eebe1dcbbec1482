package vectorstore

import (
	"fmt"

	"github.com/ternarybob/citatum/internal/common"
)

// CollectionName derives the deterministic per-topic collection name.
// Format: cv_{dimension}_{sanitized topic name}. Any component that knows
// the topic name and the deployment dimension can reconstruct it.
func CollectionName(topicName string, dimension int) string {
	return fmt.Sprintf("cv_%d_%s", dimension, common.SanitizeTopicName(topicName))
}
