// Package format decodes the 100-byte database file header.
//
// The header occupies the first 100 bytes of page 1. The reader needs only a
// handful of its fields to walk the file:
//
//   - Magic string ("SQLite format 3\x00")
//   - Page size (512 to 65536 bytes, power of 2; stored as 1 for 65536)
//   - Reserved bytes at the end of each page (shrinks the usable size)
//   - Text encoding (only UTF-8 is decoded)
//   - Page count, schema format and the writing library version, reported
//     by the dbinfo command
//
// Example usage:
//
//	buf := make([]byte, format.HeaderSize)
//	if _, err := f.ReadAt(buf, 0); err != nil {
//	    return err
//	}
//	h, err := format.ParseHeader(buf)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(h.PageSize(), h.UsableSize())
package format
