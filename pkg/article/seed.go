package article

import "cashmate/models"

var defaultArticles = []models.Article{
	{
		Title: "Mengapa Literasi Keuangan Sangat Penting untuk Masa Depan Indonesia",
		Content: "Literasi keuangan adalah kemampuan memahami dan mengelola keuangan pribadi dengan bijak. " +
			"Survei OJK tahun 2022 mencatat indeks literasi keuangan masyarakat Indonesia baru sekitar 49,68%.\n\n" +
			"Masyarakat yang melek finansial lebih siap menghadapi risiko ekonomi, terhindar dari utang konsumtif, " +
			"dan mampu menabung serta berinvestasi. Edukasi keuangan perlu dimulai sejak dini.",
	},
	{
		Title: "Peran Literasi Keuangan dalam Meningkatkan Kesejahteraan Masyarakat",
		Content: "Literasi keuangan membantu seseorang menyusun anggaran, menabung, berinvestasi, " +
			"serta memahami produk seperti asuransi dan pinjaman.\n\n" +
			"Dengan pemahaman yang benar, masyarakat tidak mudah tergiur investasi bodong " +
			"atau pinjaman online ilegal.",
	},
	{
		Title: "Tantangan dan Solusi dalam Meningkatkan Literasi Keuangan di Indonesia",
		Content: "Akses informasi yang rendah dan jangkauan program edukasi yang belum merata " +
			"masih menjadi tantangan utama.\n\n" +
			"Kolaborasi pemerintah, lembaga keuangan, sekolah, dan platform digital dapat memperluas " +
			"jangkauan edukasi keuangan lewat aplikasi, webinar, dan konten media sosial.",
	},
}
