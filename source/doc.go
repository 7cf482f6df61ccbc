// Package source provides built-in item sources.
//
// Item sources supply the population to be arranged. The package includes:
//
//   - Static: Fixed list of records
//   - CSV: Comma separated file with an id column, a name column and one column
//     per attribute type
//
// Custom sources can be implemented by satisfying the types.ItemSource interface.
package source
