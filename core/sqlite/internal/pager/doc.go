/*
Package pager provides read-only, page-granular access to a database file.

A Pager reads the 100-byte file header once, derives the page size and the
usable size of each page, and then serves pages by number:

	p, err := pager.Open("chinook.db")
	if err != nil {
		return err
	}
	defer p.Close()

	raw, err := p.ReadPage(1)

Page n lives at byte offset (n-1)*pageSize. Every call performs one
positioned read into a fresh buffer; there is no page cache, so descending
into the same page twice reads it twice. Positioned reads do not move a
shared file offset, so one Pager may serve concurrent readers.

# Compressed Images

Files that start with the xz stream magic (FD 37 7A 58 5A 00) are
decompressed into memory at open time and served from there. This lets test
fixtures and archived databases be read without unpacking them first.
*/
package pager
