// Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package visitors

import (
	"context"
	"strings"

	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/models"
	"github.com/wso2/ai-agent-management-platform/trace-analytics-service/traversal"
)

// vectorDBNames are the vector store products recognized in span names and
// peer service names.
var vectorDBNames = []string{
	"chroma", "chromadb", "pinecone", "qdrant", "weaviate", "milvus",
	"pgvector", "faiss", "opensearch-knn", "vespa", "lancedb",
}

// NewVectorDBVisitor recognizes vector-database client calls by span kind
// plus product name patterns, and by the db.system attribute.
func NewVectorDBVisitor() traversal.Processor {
	return &baseVisitor{hooks: &vectorDBVisitor{}}
}

type vectorDBVisitor struct{}

func (v *vectorDBVisitor) Name() string { return "vector_db" }

func (v *vectorDBVisitor) IsFrameworkSpan(span *models.Span, _ *traversal.Context) bool {
	if system := strings.ToLower(span.StringAttribute("db.system")); system != "" {
		for _, known := range vectorDBNames {
			if system == known {
				return true
			}
		}
	}
	if span.Kind != models.SpanKindClient && span.Kind != models.SpanKindInternal {
		return false
	}
	probe := strings.ToLower(spanName(span) + " " + span.StringAttribute("peer.service") + " " + span.Resource.ServiceName)
	for _, known := range vectorDBNames {
		if strings.Contains(probe, known) {
			return true
		}
	}
	return false
}

func (v *vectorDBVisitor) BuildTask(_ context.Context, span *models.Span, _ *traversal.Context) *models.Element {
	task := newTaskElement(span, models.TaskKindVectorDB)
	if system := span.StringAttribute("db.system"); system != "" {
		task.SetAttribute("db_system", system)
	}
	if op := span.StringAttribute("db.operation"); op != "" {
		task.SetAttribute("db_operation", op)
	}
	if collection := span.StringAttribute("db.collection.name"); collection != "" {
		task.SetAttribute("db_collection", collection)
	}
	if query := span.StringAttribute("db.query.text"); query != "" {
		task.Task.Input.Data = map[string]any{"query": query}
	}
	task.AddTag("vector_db")
	return task
}
