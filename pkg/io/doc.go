// Package io reads and writes materialized dependent trees.
//
// # Format
//
// A tree is an object keyed by dependent name. Each value records how the
// dependent declared its dependency and, recursively, its own dependents:
//
//	{
//	  "b": {
//	    "kind": "dependencies",
//	    "versionRange": "^1.0",
//	    "dependents": {
//	      "c": {
//	        "kind": "devDependencies",
//	        "versionRange": "^1.0",
//	        "dependents": {}
//	      }
//	    }
//	  }
//	}
//
// kind is one of "dependencies", "devDependencies" or "peerDependencies".
// A node whose expansion was cut because the package already appeared
// twice on its path carries "circular": true and an empty dependents
// object.
//
// [WriteJSON] and [WriteYAML] produce this shape; [ReadJSON] accepts it.
// Keys are emitted in sorted order, so output is stable across runs.
package io
