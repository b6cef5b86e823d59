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

package dbmigrations

import (
	"gorm.io/gorm"
)

// indexes for the hot query paths: children by root_id, discriminator
// lookups, and relation containment
var migration002 = migration{
	ID: 2,
	Migrate: func(db *gorm.DB) error {
		createRootIDIndex := `CREATE INDEX idx_documents_root_id ON documents(tenant_id, collection, (document->>'root_id'))`
		createTypeIndex := `CREATE INDEX idx_documents_type ON documents(tenant_id, collection, (document->>'type'))`
		createRelatedIndex := `CREATE INDEX idx_documents_related_to_ids ON documents USING GIN ((document->'related_to_ids'))`

		return db.Transaction(func(tx *gorm.DB) error {
			return runSQL(tx, createRootIDIndex, createTypeIndex, createRelatedIndex)
		})
	},
}
