// Package dataset loads the sales file and normalises it into typed rows.
//
// A Loader memoises the parsed Dataset per path. The cache entry remembers
// the file identity (size and modification time) seen at load; only an
// explicit Reload consults the file system again.
//
// Normalisation rules:
//
//   - Data and Hora_Pedido must parse for every row, otherwise the whole
//     load fails with a PARSING error naming the line.
//   - Metric columns that do not parse are set to 0 right after parsing,
//     and the number of replaced cells is reported per column.
//   - Temperatura_Dia is a grouping key; an unparseable temperature only
//     removes the row from the temperature view.
package dataset
